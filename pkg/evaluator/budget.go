package evaluator

// Budget holds the resource limits for one evaluation. Zero means unlimited.
type Budget struct {
	TimeMs        int64 `yaml:"timeMs" json:"timeMs,omitempty"`
	MaxIterations int64 `yaml:"maxIterations" json:"maxIterations,omitempty"`
}

// BudgetTracker tracks resource consumption during evaluation.
type BudgetTracker struct {
	Iterations int64
	Calls      int64
	StartMs    int64
}
