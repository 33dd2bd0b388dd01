package link

import "fmt"

// FormatError reports a malformed share-link.
type FormatError struct {
	Field   string // Part of the link that failed: "scheme", "identity", "address" or "port"
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid vless link: %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid vless link: %s: %s", e.Field, e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func newFormatError(field, message string, err error) error {
	return &FormatError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
