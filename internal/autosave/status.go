package autosave

// Status is the save indicator shown next to the form
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// Label is the short text a UI shows for the status
func (s Status) Label() string {
	switch s {
	case StatusSaving:
		return "Saving..."
	case StatusSaved:
		return "Saved"
	case StatusError:
		return "Save failed"
	default:
		return ""
	}
}
