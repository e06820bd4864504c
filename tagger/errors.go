package tagger

import (
	"fmt"
)

// LoadError reports a failed model load with the component and path that were
// attempted, instead of leaking a raw filesystem error.
type LoadError struct {
	Component string
	Path      string
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to load %s: model file not found at %q", e.Component, e.Path)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
