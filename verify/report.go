// Package verify audits finished backtest runs: it recomputes headline
// metrics from the exported equity curve, checks temporal sanity of the fill
// log, and enforces policy constraints. It reads engine outputs and never
// mutates them.
package verify

// Severity of a violation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rule identifies which check produced a violation.
type Rule string

const (
	RuleLookaheadBias         Rule = "lookahead_bias"
	RuleSharpeValidation      Rule = "sharpe_ratio_validation"
	RuleMaxDrawdownValidation Rule = "max_drawdown_validation"
	RuleMaxDrawdownConstraint Rule = "max_drawdown_constraint"
	RuleMaxLeverageConstraint Rule = "max_leverage_constraint"
)

// Violation is one finding, with supporting evidence strings for the report
// reader.
type Violation struct {
	Rule     Rule     `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Evidence []string `json:"evidence,omitempty"`
}

// Report collects the findings for one verified run.
type Report struct {
	Timestamp  int64       `json:"timestamp"`
	Violations []Violation `json:"violations"`
	Passed     bool        `json:"passed"`
}

func NewReport(timestamp int64) Report {
	return Report{Timestamp: timestamp, Passed: true}
}

func (r *Report) Add(v Violation) {
	r.Passed = false
	r.Violations = append(r.Violations, v)
}

func (r *Report) HasCritical() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

func (r *Report) Count() int {
	return len(r.Violations)
}
