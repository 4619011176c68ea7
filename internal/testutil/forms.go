// Package testutil holds fixtures shared by package tests.
package testutil

import "github.com/existflow/projectdraft/internal/model"

// ValidForm returns a snapshot that passes every validation rule and
// produces no warnings.
func ValidForm() model.ProjectFormData {
	return model.ProjectFormData{
		Step: 4,
		GeneralInfo: model.GeneralInfo{
			Name:            "Cart Revamp",
			Sponsor:         "Priya Nair",
			Type:            model.ProjectInternal,
			Code:            "CRT-01",
			BusinessUnit:    "Retail",
			Confidentiality: model.ConfidentialityInternal,
			Description:     "Checkout rewrite",
			Tags:            "checkout, payments",
		},
		Timeline: model.Timeline{
			StartDate:      "2026-01-05",
			EndDate:        "2026-06-30",
			DelayTolerance: 10,
			KickoffMethod:  model.KickoffHybrid,
			Phases: []model.Phase{
				{Label: "Discovery", From: "2026-01-05", To: "2026-02-01"},
			},
			Milestones: []model.Milestone{
				{Title: "Beta", Deadline: "2026-04-01", Owner: "Ravi"},
			},
		},
		Resources: model.Resources{
			TeamSize:    2,
			Departments: "Engineering",
			Roles:       "Backend, QA",
			Budget:      "INR 40L",
			SkillMatrix: []model.Skill{
				{Skill: "Go", Required: 2, Available: 2},
			},
			ExtendedEmployees: []model.ExtendedEmployee{
				Employee("e1", "Asha", 60, 40),
				Employee("e2", "Vikram", 50),
			},
		},
		Requirements: model.Requirements{
			ComplianceNeeds:     true,
			ComplianceFramework: "ISO 27001",
			SecurityLevel:       model.SecurityPII,
			StoragePolicy:       "Encrypted at rest",
			IntegrationTypes:    []string{"Jira"},
		},
		Approval: model.Approval{Reviewer: "Meera"},
	}
}

// Employee builds a fully populated employee with one confirmed log per allocation
func Employee(id, name string, allocations ...int) model.ExtendedEmployee {
	e := model.ExtendedEmployee{
		ID:         id,
		Name:       name,
		LOS:        "Consulting",
		SBU:        "Digital",
		SubSBU:     "Commerce",
		Competency: "Engineering",
	}
	for i, a := range allocations {
		e.AllocationLogs = append(e.AllocationLogs, model.AllocationLog{
			Timestamp:  "2026-01-01T00:00:00Z",
			Phase:      "Phase " + string(rune('A'+i)),
			Allocation: a,
			Status:     model.AllocationConfirmed,
			Reviewer:   "Meera",
		})
	}
	return e
}
