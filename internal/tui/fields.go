package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/existflow/projectdraft/internal/model"
)

// field is one editable line of the wizard. List fields use a compact text
// form: rows separated by ";" and columns by "|".
type field struct {
	label string
	hint  string
	get   func(d *model.ProjectFormData) string
	set   func(d *model.ProjectFormData, v string) error
}

func text(label string, ptr func(d *model.ProjectFormData) *string) field {
	return field{
		label: label,
		get:   func(d *model.ProjectFormData) string { return *ptr(d) },
		set: func(d *model.ProjectFormData, v string) error {
			*ptr(d) = strings.TrimSpace(v)
			return nil
		},
	}
}

func choice(label string, options []string, ptr func(d *model.ProjectFormData) *string) field {
	f := text(label, ptr)
	f.hint = strings.Join(options, " / ")
	f.set = func(d *model.ProjectFormData, v string) error {
		v = strings.TrimSpace(v)
		for _, o := range options {
			if strings.EqualFold(o, v) {
				*ptr(d) = o
				return nil
			}
		}
		if v == "" {
			*ptr(d) = ""
			return nil
		}
		return fmt.Errorf("choose one of %s", f.hint)
	}
	return f
}

func integer(label string, ptr func(d *model.ProjectFormData) *int) field {
	return field{
		label: label,
		get:   func(d *model.ProjectFormData) string { return strconv.Itoa(*ptr(d)) },
		set: func(d *model.ProjectFormData, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*ptr(d) = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("must be a whole number")
			}
			*ptr(d) = n
			return nil
		},
	}
}

// stepFields lists the editable fields of each wizard step
func stepFields() [][]field {
	return [][]field{
		generalFields(),
		timelineFields(),
		resourceFields(),
		requirementFields(),
		approvalFields(),
	}
}

func generalFields() []field {
	return []field{
		text("Project name", func(d *model.ProjectFormData) *string { return &d.GeneralInfo.Name }),
		text("Sponsor", func(d *model.ProjectFormData) *string { return &d.GeneralInfo.Sponsor }),
		choice("Type", []string{model.ProjectInternal, model.ProjectExternal},
			func(d *model.ProjectFormData) *string { return &d.GeneralInfo.Type }),
		text("Project code", func(d *model.ProjectFormData) *string { return &d.GeneralInfo.Code }),
		text("Business unit", func(d *model.ProjectFormData) *string { return &d.GeneralInfo.BusinessUnit }),
		choice("Confidentiality", []string{model.ConfidentialityPublic, model.ConfidentialityInternal, model.ConfidentialityRestricted},
			func(d *model.ProjectFormData) *string { return &d.GeneralInfo.Confidentiality }),
		text("Description", func(d *model.ProjectFormData) *string { return &d.GeneralInfo.Description }),
		text("Tags", func(d *model.ProjectFormData) *string { return &d.GeneralInfo.Tags }),
		text("Related projects", func(d *model.ProjectFormData) *string { return &d.GeneralInfo.RelatedProjects }),
	}
}

func timelineFields() []field {
	return []field{
		withHint(text("Start date", func(d *model.ProjectFormData) *string { return &d.Timeline.StartDate }), "YYYY-MM-DD"),
		withHint(text("End date", func(d *model.ProjectFormData) *string { return &d.Timeline.EndDate }), "YYYY-MM-DD"),
		integer("Delay tolerance (days)", func(d *model.ProjectFormData) *int { return &d.Timeline.DelayTolerance }),
		choice("Kickoff method", []string{model.KickoffInPerson, model.KickoffRemote, model.KickoffHybrid},
			func(d *model.ProjectFormData) *string { return &d.Timeline.KickoffMethod }),
		{
			label: "Phases",
			hint:  "label|from|to; ...",
			get: func(d *model.ProjectFormData) string {
				rows := make([][]string, len(d.Timeline.Phases))
				for i, p := range d.Timeline.Phases {
					rows[i] = []string{p.Label, p.From, p.To}
				}
				return joinRows(rows)
			},
			set: func(d *model.ProjectFormData, v string) error {
				phases := []model.Phase{}
				for _, r := range splitRows(v, 3) {
					phases = append(phases, model.Phase{Label: r[0], From: r[1], To: r[2]})
				}
				d.Timeline.Phases = phases
				return nil
			},
		},
		{
			label: "Milestones",
			hint:  "title|deadline|owner; ...",
			get: func(d *model.ProjectFormData) string {
				rows := make([][]string, len(d.Timeline.Milestones))
				for i, m := range d.Timeline.Milestones {
					rows[i] = []string{m.Title, m.Deadline, m.Owner}
				}
				return joinRows(rows)
			},
			set: func(d *model.ProjectFormData, v string) error {
				milestones := []model.Milestone{}
				for _, r := range splitRows(v, 3) {
					milestones = append(milestones, model.Milestone{Title: r[0], Deadline: r[1], Owner: r[2]})
				}
				d.Timeline.Milestones = milestones
				return nil
			},
		},
	}
}

func resourceFields() []field {
	return []field{
		integer("Team size", func(d *model.ProjectFormData) *int { return &d.Resources.TeamSize }),
		text("Departments", func(d *model.ProjectFormData) *string { return &d.Resources.Departments }),
		text("Roles", func(d *model.ProjectFormData) *string { return &d.Resources.Roles }),
		text("Budget", func(d *model.ProjectFormData) *string { return &d.Resources.Budget }),
		{
			label: "Skill matrix",
			hint:  "skill|required|available; ...",
			get: func(d *model.ProjectFormData) string {
				rows := make([][]string, len(d.Resources.SkillMatrix))
				for i, s := range d.Resources.SkillMatrix {
					rows[i] = []string{s.Skill, strconv.Itoa(s.Required), strconv.Itoa(s.Available)}
				}
				return joinRows(rows)
			},
			set: func(d *model.ProjectFormData, v string) error {
				skills := []model.Skill{}
				for _, r := range splitRows(v, 3) {
					req, err1 := atoiOrZero(r[1])
					avail, err2 := atoiOrZero(r[2])
					if err1 != nil || err2 != nil {
						return fmt.Errorf("skill %q: counts must be whole numbers", r[0])
					}
					skills = append(skills, model.Skill{Skill: r[0], Required: req, Available: avail})
				}
				d.Resources.SkillMatrix = skills
				return nil
			},
		},
		{
			label: "Employees",
			hint:  "name|los|sbu|sub-sbu|competency|alloc+alloc; ...",
			get: func(d *model.ProjectFormData) string {
				rows := make([][]string, len(d.Resources.ExtendedEmployees))
				for i, e := range d.Resources.ExtendedEmployees {
					allocs := make([]string, len(e.AllocationLogs))
					for j, l := range e.AllocationLogs {
						allocs[j] = strconv.Itoa(l.Allocation)
					}
					rows[i] = []string{e.Name, e.LOS, e.SBU, e.SubSBU, e.Competency, strings.Join(allocs, "+")}
				}
				return joinRows(rows)
			},
			set: setEmployees,
		},
	}
}

// setEmployees rebuilds the employee list, keeping ids and log details by position
func setEmployees(d *model.ProjectFormData, v string) error {
	old := d.Resources.ExtendedEmployees
	employees := []model.ExtendedEmployee{}

	for i, r := range splitRows(v, 6) {
		e := model.ExtendedEmployee{}
		if i < len(old) {
			e = old[i]
		}
		if e.ID == "" {
			e.ID = fmt.Sprintf("emp-%d", i+1)
		}
		e.Name, e.LOS, e.SBU, e.SubSBU, e.Competency = r[0], r[1], r[2], r[3], r[4]

		var logs []model.AllocationLog
		for j, a := range strings.Split(r[5], "+") {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			n, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("employee %q: allocation %q is not a whole number", e.Name, a)
			}
			l := model.AllocationLog{Phase: fmt.Sprintf("Phase %d", j+1), Status: model.AllocationPlanned}
			if j < len(e.AllocationLogs) {
				l = e.AllocationLogs[j]
			}
			l.Allocation = n
			logs = append(logs, l)
		}
		e.AllocationLogs = logs
		employees = append(employees, e)
	}

	d.Resources.ExtendedEmployees = employees
	return nil
}

func requirementFields() []field {
	return []field{
		{
			label: "Compliance needed",
			hint:  "yes / no",
			get: func(d *model.ProjectFormData) string {
				if d.Requirements.ComplianceNeeds {
					return "yes"
				}
				return "no"
			},
			set: func(d *model.ProjectFormData, v string) error {
				switch strings.ToLower(strings.TrimSpace(v)) {
				case "yes", "y", "true":
					d.Requirements.ComplianceNeeds = true
				case "no", "n", "false", "":
					d.Requirements.ComplianceNeeds = false
				default:
					return fmt.Errorf("answer yes or no")
				}
				return nil
			},
		},
		text("Compliance framework", func(d *model.ProjectFormData) *string { return &d.Requirements.ComplianceFramework }),
		choice("Security level", []string{model.SecurityPII, model.SecurityPCI, model.SecurityGDPR, model.SecurityNone},
			func(d *model.ProjectFormData) *string { return &d.Requirements.SecurityLevel }),
		text("Storage policy", func(d *model.ProjectFormData) *string { return &d.Requirements.StoragePolicy }),
		{
			label: "Integration types",
			hint:  "comma separated",
			get: func(d *model.ProjectFormData) string {
				return strings.Join(d.Requirements.IntegrationTypes, ", ")
			},
			set: func(d *model.ProjectFormData, v string) error {
				types := []string{}
				for _, t := range strings.Split(v, ",") {
					if t = strings.TrimSpace(t); t != "" {
						types = append(types, t)
					}
				}
				d.Requirements.IntegrationTypes = types
				return nil
			},
		},
		text("Cloud provider", func(d *model.ProjectFormData) *string { return &d.Requirements.CloudProvider }),
		text("Cloud region", func(d *model.ProjectFormData) *string { return &d.Requirements.CloudRegion }),
		{
			label: "Cloud cost",
			get: func(d *model.ProjectFormData) string {
				return strconv.FormatFloat(d.Requirements.CloudCost, 'f', -1, 64)
			},
			set: func(d *model.ProjectFormData, v string) error {
				v = strings.TrimSpace(v)
				if v == "" {
					d.Requirements.CloudCost = 0
					return nil
				}
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return fmt.Errorf("must be a number")
				}
				d.Requirements.CloudCost = f
				return nil
			},
		},
	}
}

func approvalFields() []field {
	return []field{
		text("Reviewer", func(d *model.ProjectFormData) *string { return &d.Approval.Reviewer }),
		text("Notes", func(d *model.ProjectFormData) *string { return &d.Approval.Notes }),
	}
}

func withHint(f field, hint string) field {
	f.hint = hint
	return f
}
