package core

import "fmt"

// ParsingError indicates input that cannot be interpreted as an email
// at all. Partial decode failures degrade instead of raising this.
type ParsingError struct {
	Err error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("failed to parse email: %v", e.Err)
}

func (e *ParsingError) Unwrap() error {
	return e.Err
}

// FileValidationError indicates a file that is missing, unreadable,
// empty, oversized, or has the wrong extension.
type FileValidationError struct {
	Path   string
	Reason string
}

func (e *FileValidationError) Error() string {
	return fmt.Sprintf("invalid email file %q: %s", e.Path, e.Reason)
}

// AnalysisError indicates an internal failure inside one extractor or
// the scoring stage.
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
