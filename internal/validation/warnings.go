package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/existflow/projectdraft/internal/model"
)

// Warnings derives advisory messages from a possibly incomplete snapshot.
// Order is fixed: skill gaps, compliance storage, budget, allocation capacity.
func Warnings(d model.ProjectFormData) []string {
	out := []string{}

	for _, s := range d.Resources.SkillMatrix {
		if s.Required > s.Available {
			name := strings.TrimSpace(s.Skill)
			if name == "" {
				name = "unnamed skill"
			}
			out = append(out, fmt.Sprintf("Skill gap for %s: %d required, %d available", name, s.Required, s.Available))
		}
	}

	if d.Requirements.ComplianceNeeds && blank(d.Requirements.StoragePolicy) {
		out = append(out, "Storage policy missing, required for compliance tagging")
	}

	if d.Resources.TeamSize > 0 && blank(d.Resources.Budget) {
		out = append(out, "Provide a budget estimate when team size is non-zero")
	}

	total := 0
	for _, e := range d.Resources.ExtendedEmployees {
		total = model.AddClamped(total, e.TotalAllocation())
	}
	if capacity := staffingCapacity(d.Resources.TeamSize); total > capacity {
		out = append(out, fmt.Sprintf("Total allocation (%d%%) exceeds staffing capacity (%d%%)", total, capacity))
	}

	return out
}

// staffingCapacity is teamSize*100, clamped to the int range
func staffingCapacity(teamSize int) int {
	switch {
	case teamSize > math.MaxInt/100:
		return math.MaxInt
	case teamSize < math.MinInt/100:
		return math.MinInt
	}
	return teamSize * 100
}
