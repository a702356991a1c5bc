package enhancer

import (
	"errors"
	"fmt"
)

// Pipeline construction errors.
var (
	// ErrNoName indicates an enhancer reported an empty name.
	ErrNoName = errors.New("enhancer has no name")

	// ErrDuplicateEnhancer indicates two enhancers share a name.
	ErrDuplicateEnhancer = errors.New("duplicate enhancer")

	// ErrUnknownDependency indicates a dependency names no registered enhancer.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrDisabledDependency indicates an enabled enhancer depends on a
	// disabled one.
	ErrDisabledDependency = errors.New("dependency is disabled")

	// ErrCyclicDependency indicates the dependency graph has a cycle.
	ErrCyclicDependency = errors.New("cyclic dependency")
)

// Stage errors. These never escape Pipeline.Run.
var (
	// ErrNilResponse indicates an enhancer returned no response.
	ErrNilResponse = errors.New("enhancer returned nil response")

	// ErrStatusChanged indicates an enhancer altered the response status.
	ErrStatusChanged = errors.New("enhancer changed response status")

	// ErrListShrunk indicates an enhancer removed suggestions or risks.
	ErrListShrunk = errors.New("enhancer removed suggestions or risks")
)

// ConfigError reports an invalid enhancer set.
type ConfigError struct {
	Enhancer   string
	Dependency string
	Err        error
}

func (e *ConfigError) Error() string {
	if e.Dependency != "" {
		return fmt.Sprintf("enhancer %q: %v %q", e.Enhancer, e.Err, e.Dependency)
	}
	return fmt.Sprintf("enhancer %q: %v", e.Enhancer, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StageError describes a failed enhancer stage.
type StageError struct {
	Enhancer string
	Panic    bool
	Err      error
}

func (e *StageError) Error() string {
	kind := "failed"
	if e.Panic {
		kind = "panicked"
	}
	return fmt.Sprintf("enhancer %s %s: %v", e.Enhancer, kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
