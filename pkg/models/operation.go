package models

// OperationKind names what a plan does with the selected files
type OperationKind string

const (
	// OperationCopy copies files from the source to the destination
	OperationCopy OperationKind = "copy"
	// OperationMove moves files from the source to the destination
	OperationMove OperationKind = "move"
	// OperationRemove removes files from the source
	OperationRemove OperationKind = "remove"
)

// Verb returns the word used in user-facing notices
func (k OperationKind) Verb() string {
	switch k {
	case OperationMove:
		return "move"
	case OperationRemove:
		return "remove"
	default:
		return "copy"
	}
}

// ColorScheme selects how plans and tables are colored
type ColorScheme string

const (
	// ColorsNone disables colors
	ColorsNone ColorScheme = "none"
	// ColorsDark is tuned for dark terminal backgrounds
	ColorsDark ColorScheme = "dark"
)

// TransferOptions holds the user intent shared by cp, mv and rm
type TransferOptions struct {
	Force     bool
	DryRun    bool
	Quiet     bool
	Colors    ColorScheme
	Bandwidth int64 // bytes per second, 0 = unlimited
	// Checksum makes transfers compare content instead of size and mtime
	Checksum bool
}

// Validate checks flag combinations that cannot be honoured
func (o TransferOptions) Validate() error {
	if o.Force && o.DryRun {
		return &ValidationError{Field: "force", Message: "cannot use --force with --dry-run"}
	}
	switch o.Colors {
	case "", ColorsNone, ColorsDark:
	default:
		return &ValidationError{Field: "colors", Message: "must be 'none' or 'dark'"}
	}
	if o.Bandwidth < 0 {
		return &ValidationError{Field: "bandwidth", Message: "must not be negative"}
	}
	return nil
}
