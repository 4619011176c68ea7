package model

import "math"

// Project types
const (
	ProjectInternal = "Internal"
	ProjectExternal = "External"
)

// Confidentiality levels
const (
	ConfidentialityPublic     = "Public"
	ConfidentialityInternal   = "Internal"
	ConfidentialityRestricted = "Restricted"
)

// Kickoff methods
const (
	KickoffInPerson = "In-person"
	KickoffRemote   = "Remote"
	KickoffHybrid   = "Hybrid"
)

// Allocation log statuses
const (
	AllocationPlanned   = "Planned"
	AllocationConfirmed = "Confirmed"
	AllocationRejected  = "Rejected"
)

// Security levels
const (
	SecurityPII  = "PII"
	SecurityPCI  = "PCI"
	SecurityGDPR = "GDPR"
	SecurityNone = "None"
)

// Steps lists the wizard sections in order. ProjectFormData.Step indexes into it.
var Steps = []string{"General Info", "Timeline", "Resources", "Requirements", "Review"}

// ProjectFormData is the full wizard snapshot
type ProjectFormData struct {
	Step         int          `json:"step"`
	GeneralInfo  GeneralInfo  `json:"generalInfo"`
	Timeline     Timeline     `json:"timeline"`
	Resources    Resources    `json:"resources"`
	Requirements Requirements `json:"requirements"`
	Approval     Approval     `json:"approval"`
}

// GeneralInfo is the first wizard section
type GeneralInfo struct {
	Name            string `json:"name"`
	Sponsor         string `json:"sponsor"`
	Type            string `json:"type"`
	Code            string `json:"code"`
	BusinessUnit    string `json:"businessUnit"`
	Confidentiality string `json:"confidentiality"`
	Description     string `json:"description"`
	Tags            string `json:"tags"`
	RelatedProjects string `json:"relatedProjects"`
}

// Timeline holds dates, phases and milestones
type Timeline struct {
	StartDate      string      `json:"startDate"`
	EndDate        string      `json:"endDate"`
	DelayTolerance int         `json:"delayTolerance"` // days
	KickoffMethod  string      `json:"kickoffMethod"`
	Phases         []Phase     `json:"phases"`
	Milestones     []Milestone `json:"milestones"`
}

// Phase is a labelled date range inside the timeline
type Phase struct {
	Label string `json:"label"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Milestone is a dated deliverable with an owner
type Milestone struct {
	Title    string `json:"title"`
	Deadline string `json:"deadline"`
	Owner    string `json:"owner"`
}

// Resources describes staffing and budget
type Resources struct {
	TeamSize          int                `json:"teamSize"`
	Departments       string             `json:"departments"`
	Roles             string             `json:"roles"`
	Budget            string             `json:"budget"`
	SkillMatrix       []Skill            `json:"skillMatrix"`
	ExtendedEmployees []ExtendedEmployee `json:"extendedEmployees"`
}

// Skill is one row of the skill matrix
type Skill struct {
	Skill     string `json:"skill"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// ExtendedEmployee is an employee identity plus allocation history
type ExtendedEmployee struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	LOS            string          `json:"los"`
	SBU            string          `json:"sbu"`
	SubSBU         string          `json:"subSbu"`
	Competency     string          `json:"competency"`
	Phone          string          `json:"phone,omitempty"`
	JoiningDate    string          `json:"joiningDate,omitempty"`
	Comment        string          `json:"comment,omitempty"`
	AllocationLogs []AllocationLog `json:"allocationLogs"`
}

// TotalAllocation sums the allocation percentages of all logs, saturating at
// the int range
func (e ExtendedEmployee) TotalAllocation() int {
	total := 0
	for _, l := range e.AllocationLogs {
		total = AddClamped(total, l.Allocation)
	}
	return total
}

// AddClamped adds a and b, clamping to math.MinInt/math.MaxInt instead of wrapping
func AddClamped(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

// AllocationLog is a per-phase allocation entry
type AllocationLog struct {
	Timestamp  string `json:"timestamp"`
	Phase      string `json:"phase"`
	Allocation int    `json:"allocation"` // percent, 0-100
	Status     string `json:"status"`
	Reviewer   string `json:"reviewer"`
}

// Requirements holds compliance and integration needs
type Requirements struct {
	ComplianceNeeds     bool     `json:"complianceNeeds"`
	ComplianceFramework string   `json:"complianceFramework"`
	SecurityLevel       string   `json:"securityLevel"`
	StoragePolicy       string   `json:"storagePolicy"`
	IntegrationTypes    []string `json:"integrationTypes"`
	CloudProvider       string   `json:"cloudProvider"`
	CloudRegion         string   `json:"cloudRegion"`
	CloudCost           float64  `json:"cloudCost"`
}

// Approval is the reviewer section
type Approval struct {
	Reviewer string `json:"reviewer"`
	Notes    string `json:"notes"`
}

// InitialData returns the empty form used to hydrate a new wizard
func InitialData() ProjectFormData {
	return ProjectFormData{
		Step: 0,
		GeneralInfo: GeneralInfo{
			Type:            ProjectInternal,
			Confidentiality: ConfidentialityInternal,
		},
		Timeline: Timeline{
			KickoffMethod: KickoffInPerson,
			Phases:        []Phase{},
			Milestones:    []Milestone{},
		},
		Resources: Resources{
			SkillMatrix:       []Skill{},
			ExtendedEmployees: []ExtendedEmployee{},
		},
		Requirements: Requirements{
			SecurityLevel:    SecurityNone,
			IntegrationTypes: []string{},
		},
	}
}

// Clone returns a deep copy so that callers can keep editing the original
func (d ProjectFormData) Clone() ProjectFormData {
	out := d
	out.Timeline.Phases = cloneSlice(d.Timeline.Phases)
	out.Timeline.Milestones = cloneSlice(d.Timeline.Milestones)
	out.Resources.SkillMatrix = cloneSlice(d.Resources.SkillMatrix)
	out.Requirements.IntegrationTypes = cloneSlice(d.Requirements.IntegrationTypes)
	if d.Resources.ExtendedEmployees != nil {
		out.Resources.ExtendedEmployees = make([]ExtendedEmployee, len(d.Resources.ExtendedEmployees))
		for i, e := range d.Resources.ExtendedEmployees {
			e.AllocationLogs = cloneSlice(e.AllocationLogs)
			out.Resources.ExtendedEmployees[i] = e
		}
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// StepName returns the label of the current step, or "" when out of range
func (d ProjectFormData) StepName() string {
	if d.Step < 0 || d.Step >= len(Steps) {
		return ""
	}
	return Steps[d.Step]
}
