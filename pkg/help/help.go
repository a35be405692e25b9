// Package help holds the built-in minilang reference text.
package help

import (
	"fmt"
	"strings"
)

// Version is reported by the quick reference and the command line driver.
const Version = "v0.3"

// QUICKREF is printed by `minilang help` and the REPL's :help command.
const QUICKREF = `minilang ` + Version + ` quick reference

  x := 1                       define a variable in the current frame
  x = x + 1                    assign to the nearest existing binding
  print(x)  println(x)         write a value (println adds a newline)
  fn add(a: int, b: int) { a + b }
  add(1, 2)                    call; the body sees only its parameters
  if c { .. } else { .. }      branches are expressions
  while c { .. }
  for i := 0; i < 3; i = i + 1 { .. }
  cast(float, 3)               convert between int, float, str, bool

Types: int float str bool. Comments start with #.
Statements are separated by ';', which is optional after a closing '}'.

Commands: run, repl, check, fmt, tokens, ast, help, config
REPL: :env lists bindings, :help shows this text, :quit leaves.

Topics: minilang help <topic>
  syntax  types  flow  functions  errors  examples
`

// TopicList is the display order of the help topics.
var TopicList = []string{"syntax", "types", "flow", "functions", "errors", "examples"}

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `SYNTAX

A program is a sequence of statements separated by ';'. The separator may be
left out after a statement that ends with '}'. Blank statements are ignored.

Statements:
  name := expr              define (always in the innermost frame)
  name = expr               assign (the name must already exist)
  print(expr)               write the value
  println(expr)             write the value and a newline
  fn name(p: type, ...) { block }
  expr                      any expression; its value is the statement's value

Operators, loosest first:
  or
  and
  not  !                    (prefix)
  == != < <= > >=
  + -
  * / %
  -                         (prefix)
  **                        (right associative)

Literals: 42  1.5  2e10  "text\n"  true  false
Comments run from '#' to the end of the line.
`,

	"types": `TYPES

  int     64-bit signed integer; arithmetic past its range is an error
  float   64-bit floating point
  str     text; '+' concatenates, no other operator applies
  bool    true or false

Both operands of a binary operator must have the same type; there is no
implicit promotion. Use cast(type, expr) to convert:

  cast(int, 2.9)       2        truncates toward zero
  cast(int, "12")      12       decimal text only
  cast(float, true)    1.0
  cast(str, 1.5)       "1.5"    the printed form
  cast(bool, 0)        false    zero and "" are false

Integer '/' yields a float. '%' is floor modulo. '**' with a negative
exponent yields a float.
`,

	"flow": `FLOW

  if cond { block }
  if cond { block } else { block }
  while cond { block }
  for init; cond; step { block }

Conditions must be bool. if/else yields the value of the branch taken; an
if without else yields nothing when the condition is false. A loop yields
the value of its last completed body, or nothing if the body never ran.
Blocks do not open a new scope: a variable defined inside a loop body stays
visible after the loop. 'and' and 'or' evaluate both operands.
`,

	"functions": `FUNCTIONS

  fn name(p1: int, p2: str) { body }

Parameters are typed and checked on every call; the argument count must
match. A call runs the body in a fresh environment holding only the
parameters: globals, the caller's variables and other functions are not
visible, so a function cannot call itself. The value of the last statement
in the body is the result.
`,

	"errors": `ERRORS

Diagnostics carry a code and a source position.

  E_LEX              malformed token
  E_PARSE            malformed program
  E_DUP_PARAM        a parameter name repeats
  E_UNDEFINED_NAME   unknown variable or function
  E_TYPE_MISMATCH    operand, argument or condition of the wrong type
  E_ARITY_MISMATCH   wrong number of arguments
  E_CAST             value cannot be converted
  E_DIV_ZERO         division or modulo by zero
  E_INT_OVERFLOW     int result outside the 64-bit range
  E_BUDGET           iteration or time limit reached
  E_CANCELED         interrupted

A runtime error stops the current unit. Bindings made before the error are
kept, so a REPL session can continue.

Exit codes: 0 ok, 1 usage or I/O, 2 diagnostics, 4 runtime error.
`,

	"examples": `EXAMPLES

  # countdown
  n := 3;
  while n > 0 { println(n); n = n - 1 }

  # typed function
  fn area(w: float, h: float) { w * h }
  println(area(2.0, cast(float, 3)));

  # if as a value
  sign := if n < 0 { "negative" } else { "non-negative" }
  println(sign);

  # loop
  for i := 0; i < 3; i = i + 1 { print(i) }
`,
}

// MatchTopic finds a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	if query != "" {
		for _, name := range TopicList {
			if strings.HasPrefix(name, query) {
				matches = append(matches, name)
			}
		}
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	case 1:
		return matches[0], Topics[matches[0]], nil
	}
	return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
}
