package validation

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/existflow/projectdraft/internal/model"
)

const dateLayout = "2006-01-02"

// parseDate accepts YYYY-MM-DD and full RFC3339 timestamps
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func issue(path Path, msg string) Issue {
	return Issue{Path: path, Message: msg}
}

// minLength fails when the trimmed value is shorter than n runes
func minLength(name string, n int, msg string, path Path, get func(*model.ProjectFormData) string) Rule {
	return Rule{Name: name, Check: func(d *model.ProjectFormData) []Issue {
		if utf8.RuneCountInString(strings.TrimSpace(get(d))) < n {
			return []Issue{issue(path, msg)}
		}
		return nil
	}}
}

// oneOf fails when the value is empty (requiredMsg) or not in allowed (invalidMsg).
// An empty requiredMsg makes the field optional.
func oneOf(name string, allowed []string, requiredMsg, invalidMsg string, path Path, get func(*model.ProjectFormData) string) Rule {
	return Rule{Name: name, Check: func(d *model.ProjectFormData) []Issue {
		v := get(d)
		if v == "" {
			if requiredMsg == "" {
				return nil
			}
			return []Issue{issue(path, requiredMsg)}
		}
		if !slices.Contains(allowed, v) {
			return []Issue{issue(path, invalidMsg)}
		}
		return nil
	}}
}

func requiredDate(name, requiredMsg string, path Path, get func(*model.ProjectFormData) string) Rule {
	return Rule{Name: name, Check: func(d *model.ProjectFormData) []Issue {
		v := get(d)
		if blank(v) {
			return []Issue{issue(path, requiredMsg)}
		}
		if _, ok := parseDate(v); !ok {
			return []Issue{issue(path, "Invalid date")}
		}
		return nil
	}}
}

// FieldRules returns the per-section field rules in evaluation order
func FieldRules() []Rule {
	var rules []Rule
	rules = append(rules, generalInfoRules()...)
	rules = append(rules, timelineRules()...)
	rules = append(rules, resourcesRules()...)
	rules = append(rules, requirementsRules()...)
	rules = append(rules, stepRule())
	return rules
}

func generalInfoRules() []Rule {
	return []Rule{
		minLength("general-name", 2, "Project name must be at least 2 characters",
			P("generalInfo", "name"), func(d *model.ProjectFormData) string { return d.GeneralInfo.Name }),
		minLength("general-sponsor", 2, "Sponsor name must be at least 2 characters",
			P("generalInfo", "sponsor"), func(d *model.ProjectFormData) string { return d.GeneralInfo.Sponsor }),
		oneOf("general-type", []string{model.ProjectInternal, model.ProjectExternal},
			"Project type is required", "Project type must be Internal or External",
			P("generalInfo", "type"), func(d *model.ProjectFormData) string { return d.GeneralInfo.Type }),
		minLength("general-code", 3, "Project code must be at least 3 characters",
			P("generalInfo", "code"), func(d *model.ProjectFormData) string { return d.GeneralInfo.Code }),
		minLength("general-business-unit", 1, "Business Unit is required",
			P("generalInfo", "businessUnit"), func(d *model.ProjectFormData) string { return d.GeneralInfo.BusinessUnit }),
		oneOf("general-confidentiality",
			[]string{model.ConfidentialityPublic, model.ConfidentialityInternal, model.ConfidentialityRestricted},
			"Confidentiality level is required", "Invalid confidentiality level",
			P("generalInfo", "confidentiality"), func(d *model.ProjectFormData) string { return d.GeneralInfo.Confidentiality }),
	}
}

func timelineRules() []Rule {
	return []Rule{
		requiredDate("timeline-start-date", "Start date is required",
			P("timeline", "startDate"), func(d *model.ProjectFormData) string { return d.Timeline.StartDate }),
		requiredDate("timeline-end-date", "End date is required",
			P("timeline", "endDate"), func(d *model.ProjectFormData) string { return d.Timeline.EndDate }),
		{Name: "timeline-delay-tolerance", Check: func(d *model.ProjectFormData) []Issue {
			if d.Timeline.DelayTolerance < 0 {
				return []Issue{issue(P("timeline", "delayTolerance"), "Delay tolerance cannot be negative")}
			}
			return nil
		}},
		oneOf("timeline-kickoff", []string{model.KickoffInPerson, model.KickoffRemote, model.KickoffHybrid},
			"Kickoff method is required", "Invalid kickoff method",
			P("timeline", "kickoffMethod"), func(d *model.ProjectFormData) string { return d.Timeline.KickoffMethod }),
		{Name: "timeline-phases", Check: func(d *model.ProjectFormData) []Issue {
			var out []Issue
			for i, ph := range d.Timeline.Phases {
				base := P("timeline", "phases", i)
				if blank(ph.Label) {
					out = append(out, issue(base.with("label"), "Phase name is required"))
				}
				if blank(ph.From) {
					out = append(out, issue(base.with("from"), "Start date is required"))
				}
				if blank(ph.To) {
					out = append(out, issue(base.with("to"), "End date is required"))
				}
			}
			return out
		}},
		{Name: "timeline-milestones", Check: func(d *model.ProjectFormData) []Issue {
			var out []Issue
			for i, m := range d.Timeline.Milestones {
				base := P("timeline", "milestones", i)
				if blank(m.Title) {
					out = append(out, issue(base.with("title"), "Milestone title is required"))
				}
				if blank(m.Deadline) {
					out = append(out, issue(base.with("deadline"), "Deadline is required"))
				}
				if blank(m.Owner) {
					out = append(out, issue(base.with("owner"), "Owner is required"))
				}
			}
			return out
		}},
	}
}

func resourcesRules() []Rule {
	return []Rule{
		{Name: "resources-team-size", Check: func(d *model.ProjectFormData) []Issue {
			if d.Resources.TeamSize < 1 {
				return []Issue{issue(P("resources", "teamSize"), "Team size is required")}
			}
			return nil
		}},
		minLength("resources-departments", 1, "At least one department is required",
			P("resources", "departments"), func(d *model.ProjectFormData) string { return d.Resources.Departments }),
		{Name: "resources-skills", Check: func(d *model.ProjectFormData) []Issue {
			var out []Issue
			for i, s := range d.Resources.SkillMatrix {
				base := P("resources", "skillMatrix", i)
				if blank(s.Skill) {
					out = append(out, issue(base.with("skill"), "Skill is required"))
				}
				if s.Required < 0 {
					out = append(out, issue(base.with("required"), "Required count cannot be negative"))
				}
				if s.Available < 0 {
					out = append(out, issue(base.with("available"), "Available count cannot be negative"))
				}
			}
			return out
		}},
		{Name: "resources-employees", Check: func(d *model.ProjectFormData) []Issue {
			var out []Issue
			for i, e := range d.Resources.ExtendedEmployees {
				out = append(out, employeeIssues(P("resources", "extendedEmployees", i), e)...)
			}
			return out
		}},
	}
}

// placeholder values the employee grid uses before a selection is made
var orgPlaceholders = []struct {
	field, label, placeholder string
	get                       func(model.ExtendedEmployee) string
}{
	{"los", "LOS", "LOS", func(e model.ExtendedEmployee) string { return e.LOS }},
	{"sbu", "SBU", "SBU", func(e model.ExtendedEmployee) string { return e.SBU }},
	{"subSbu", "Sub-SBU", "SubSBU", func(e model.ExtendedEmployee) string { return e.SubSBU }},
	{"competency", "Competency", "Competency", func(e model.ExtendedEmployee) string { return e.Competency }},
}

func employeeIssues(base Path, e model.ExtendedEmployee) []Issue {
	var out []Issue
	if blank(e.Name) {
		out = append(out, issue(base.with("name"), "Name is required"))
	}
	for _, f := range orgPlaceholders {
		v := f.get(e)
		switch {
		case blank(v):
			out = append(out, issue(base.with(f.field), f.label+" is required"))
		case v == f.placeholder:
			out = append(out, issue(base.with(f.field), "Please select a valid "+f.placeholder))
		}
	}

	if len(e.AllocationLogs) == 0 {
		out = append(out, issue(base.with("allocationLogs"), "Add at least one log"))
	}
	statuses := []string{model.AllocationPlanned, model.AllocationConfirmed, model.AllocationRejected}
	for j, l := range e.AllocationLogs {
		lp := base.with("allocationLogs", j)
		if blank(l.Phase) {
			out = append(out, issue(lp.with("phase"), "Phase is required"))
		}
		if l.Allocation < 0 || l.Allocation > 100 {
			out = append(out, issue(lp.with("allocation"), "Allocation must be between 0 and 100"))
		}
		if !slices.Contains(statuses, l.Status) {
			out = append(out, issue(lp.with("status"), "Status must be Planned, Confirmed or Rejected"))
		}
		if blank(l.Reviewer) {
			out = append(out, issue(lp.with("reviewer"), "Reviewer is required"))
		}
	}
	return out
}

func requirementsRules() []Rule {
	return []Rule{
		oneOf("requirements-security-level",
			[]string{model.SecurityPII, model.SecurityPCI, model.SecurityGDPR, model.SecurityNone},
			"", "Invalid security level",
			P("requirements", "securityLevel"), func(d *model.ProjectFormData) string { return d.Requirements.SecurityLevel }),
		{Name: "requirements-integrations", Check: func(d *model.ProjectFormData) []Issue {
			var out []Issue
			for i, t := range d.Requirements.IntegrationTypes {
				if blank(t) {
					out = append(out, issue(P("requirements", "integrationTypes", i), "Integration type is required"))
				}
			}
			return out
		}},
		{Name: "requirements-cloud-cost", Check: func(d *model.ProjectFormData) []Issue {
			if d.Requirements.CloudCost < 0 {
				return []Issue{issue(P("requirements", "cloudCost"), "Cloud cost cannot be negative")}
			}
			return nil
		}},
	}
}

func stepRule() Rule {
	return Rule{Name: "step-range", Check: func(d *model.ProjectFormData) []Issue {
		if d.Step < 0 || d.Step >= len(model.Steps) {
			return []Issue{issue(P("step"), "Invalid step")}
		}
		return nil
	}}
}
