package labels

import "fmt"

// CompileError reports why a container's labels could not be turned into a
// service configuration.
type CompileError struct {
	Container string
	// Label is the label at fault, empty when no single label is to blame.
	Label  string
	Reason string
	Err    error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("container %s: %s", e.Container, e.Reason)
	if e.Label != "" {
		msg = fmt.Sprintf("container %s: label %s: %s", e.Container, e.Label, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Err }
