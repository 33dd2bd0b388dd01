package checker

import "fmt"

// Stages of a connection check
const (
	StageSource = "source"
	StageProxy  = "proxy"
)

// CheckError wraps a lookup failure with the stage it happened in.
type CheckError struct {
	Stage   string
	Message string
	Err     error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s check: %s: %v", e.Stage, e.Message, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

func NewCheckError(stage, message string, err error) error {
	return &CheckError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}
