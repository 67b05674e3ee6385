package preview

// Kind tags which variant of Content a result carries.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindError
	KindImage
)

// Content is the tagged preview payload sent back to the UI. Only the
// field matching Kind is populated.
type Content struct {
	Kind Kind
	// Lines holds up to MaxLines of decoded text, for KindText.
	Lines []string
	// Message explains the failure, for KindError.
	Message string
	// ImagePath is the resolved path handed to the terminal's image
	// renderer, for KindImage. Decoding and display are a collaborator's
	// concern; the worker only classifies and locates the file.
	ImagePath string
	// SourcePath is the file this content was generated from, so the UI
	// can detect staleness against the currently selected row.
	SourcePath string
}
