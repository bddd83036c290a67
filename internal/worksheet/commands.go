package worksheet

import "io"

// Command is a user action applied to the worksheet
type Command interface {
	Name() string
}

// ParseText appends every parseable line of pasted text
type ParseText struct {
	Text string
}

// AddSample appends the configured sample match
type AddSample struct{}

// Clear removes every row
type Clear struct{}

// UploadFile appends the lines of an uploaded CSV, skipping a header row
type UploadFile struct {
	Filename string
	Body     io.Reader
}

func (ParseText) Name() string  { return "parse_text" }
func (AddSample) Name() string  { return "add_sample" }
func (Clear) Name() string      { return "clear" }
func (UploadFile) Name() string { return "upload_file" }
