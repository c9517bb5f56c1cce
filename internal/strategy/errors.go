package strategy

import (
	"errors"
	"fmt"
)

// ErrStrategyCycle is wrapped by UnknownBranchError when parent branches form a loop.
var ErrStrategyCycle = errors.New("parent branch chain forms a cycle")

// UnknownBranchError is returned when no strategy pattern matches a branch.
type UnknownBranchError struct {
	Branch string
	Err    error
}

func (e *UnknownBranchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no versioning strategy for branch %s: %v", e.Branch, e.Err)
	}
	return fmt.Sprintf("no versioning strategy matches branch %s", e.Branch)
}

func (e *UnknownBranchError) Unwrap() error {
	return e.Err
}
