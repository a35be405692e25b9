package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thomasrohde/minilang/pkg/ast"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
)

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{File: "test.mini", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Message != "unexpected token" {
		t.Errorf("got Message = %q, want %q", d.Message, "unexpected token")
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &ast.Span{File: "test.mini", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.EUndefined, "undefined name 'x'", span, "define it with x := ...")

	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "error[E_UNDEFINED_NAME]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "test.mini:3:5") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad token", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}
	assert.NotContains(t, out, "span")
}

func TestFormatDiagnosticsJoinsPretty(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EParse, "first", nil, ""),
		diagnostics.MakeDiag(diagnostics.EParse, "second", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, true)
	assert.Equal(t, 2, strings.Count(out, "error[E_PARSE]"))
	assert.Contains(t, out, "\n\n")
}

func TestSentinel(t *testing.T) {
	assert.Equal(t, diagnostics.ErrLex, diagnostics.Sentinel(diagnostics.ELex))
	assert.Equal(t, diagnostics.ErrParse, diagnostics.Sentinel(diagnostics.EParse))
	assert.Equal(t, diagnostics.ErrValidation, diagnostics.Sentinel(diagnostics.EDupParam))
	assert.Nil(t, diagnostics.Sentinel(diagnostics.ETypeMismatch))
}
