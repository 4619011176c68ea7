package validation

import (
	"strings"

	"github.com/existflow/projectdraft/internal/model"
)

// CrossFieldRules returns the whole-form invariants in evaluation order
func CrossFieldRules() []Rule {
	return []Rule{
		{Name: "timeline-order", Check: checkTimelineOrder},
		{Name: "allocation-cap", Check: checkAllocationCap},
		{Name: "compliance-framework", Check: checkComplianceFramework},
		{Name: "cloud-details", Check: checkCloudDetails},
		{Name: "employees-required", Check: checkEmployeesRequired},
	}
}

func checkTimelineOrder(d *model.ProjectFormData) []Issue {
	start, ok1 := parseDate(d.Timeline.StartDate)
	end, ok2 := parseDate(d.Timeline.EndDate)
	if !ok1 || !ok2 {
		return nil
	}
	if end.Before(start) {
		return []Issue{issue(P("timeline", "endDate"), "End date must be after start date")}
	}
	return nil
}

func checkAllocationCap(d *model.ProjectFormData) []Issue {
	var out []Issue
	for i, e := range d.Resources.ExtendedEmployees {
		if e.TotalAllocation() > 100 {
			out = append(out, issue(P("resources", "extendedEmployees", i, "allocationLogs"),
				"Total allocation cannot exceed 100%"))
		}
	}
	return out
}

func checkComplianceFramework(d *model.ProjectFormData) []Issue {
	if d.Requirements.ComplianceNeeds && blank(d.Requirements.ComplianceFramework) {
		return []Issue{issue(P("requirements", "complianceFramework"),
			"Compliance framework is required when compliance is needed")}
	}
	return nil
}

// HasCloudIntegration reports whether any integration type mentions "cloud"
func HasCloudIntegration(r model.Requirements) bool {
	for _, t := range r.IntegrationTypes {
		if strings.Contains(strings.ToLower(t), "cloud") {
			return true
		}
	}
	return false
}

func checkCloudDetails(d *model.ProjectFormData) []Issue {
	if !HasCloudIntegration(d.Requirements) {
		return nil
	}
	switch {
	case blank(d.Requirements.CloudProvider):
		return []Issue{issue(P("requirements", "cloudProvider"), "Cloud provider is required for cloud integrations")}
	case blank(d.Requirements.CloudRegion):
		return []Issue{issue(P("requirements", "cloudRegion"), "Cloud region is required for cloud integrations")}
	}
	return nil
}

func checkEmployeesRequired(d *model.ProjectFormData) []Issue {
	if len(d.Resources.ExtendedEmployees) == 0 {
		return []Issue{issue(P("resources", "extendedEmployees"), "Add at least one employee")}
	}
	return nil
}
