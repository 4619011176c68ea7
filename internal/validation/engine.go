// Package validation checks project form snapshots.
//
// Rules are plain named predicates over model.ProjectFormData. Field rules run
// first, section by section, then the cross-field rules. Every failing rule is
// reported so the wizard can render all inline errors at once.
package validation

import "github.com/existflow/projectdraft/internal/model"

// Rule is a named check producing zero or more issues
type Rule struct {
	Name  string
	Check func(d *model.ProjectFormData) []Issue
}

// Engine runs an ordered list of field rules then cross-field rules
type Engine struct {
	fieldRules []Rule
	crossRules []Rule
}

// NewEngine builds an engine from explicit rule lists
func NewEngine(fieldRules, crossRules []Rule) *Engine {
	return &Engine{fieldRules: fieldRules, crossRules: crossRules}
}

var defaultEngine = NewEngine(FieldRules(), CrossFieldRules())

// Default returns the engine used by the service and the wizard
func Default() *Engine {
	return defaultEngine
}

// Validate runs the default engine against a snapshot
func Validate(d model.ProjectFormData) Result {
	return defaultEngine.Validate(d)
}

// Validate evaluates every rule against d
func (e *Engine) Validate(d model.ProjectFormData) Result {
	return e.run(&d, nil)
}

func (e *Engine) run(d *model.ProjectFormData, typeIssues []Issue) Result {
	issues := append([]Issue(nil), typeIssues...)
	issues = append(issues, runRules(e.fieldRules, d)...)

	// Cross-field rules compare numbers and dates; skip them when a numeric
	// field could not be read.
	if len(typeIssues) == 0 {
		issues = append(issues, runRules(e.crossRules, d)...)
	}
	return Result{Issues: issues}
}

func runRules(rules []Rule, d *model.ProjectFormData) []Issue {
	var out []Issue
	for _, r := range rules {
		for _, is := range r.Check(d) {
			if is.Rule == "" {
				is.Rule = r.Name
			}
			out = append(out, is)
		}
	}
	return out
}
