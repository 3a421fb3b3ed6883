package core

import (
	"errors"
	"fmt"
)

var errForeignResource = errors.New("resource belongs to another runtime")

// Shared is the declaration handle of a Resource. Tasks list the resources
// they touch as []Shared; the runtime derives every ceiling from those lists.
type Shared interface {
	Name() string
	Ceiling() Priority
	declare(rt *Runtime, task TaskID, p Priority) error
}

// Resource is mutable state reachable from more than one task.
type Resource[T any] struct {
	name    string
	ceiling Priority
	users   uint32 // bit per TaskID that declared the resource
	rt      *Runtime
	value   T
}

// NewResource creates an unbound resource holding init.
func NewResource[T any](name string, init T) *Resource[T] {
	return &Resource[T]{name: name, value: init}
}

// Name returns the resource name.
func (r *Resource[T]) Name() string { return r.name }

// Ceiling returns the highest priority of any task that declared r.
func (r *Resource[T]) Ceiling() Priority { return r.ceiling }

func (r *Resource[T]) declare(rt *Runtime, task TaskID, p Priority) error {
	if r.rt != nil && r.rt != rt {
		return fmt.Errorf("%s: %w", r.name, errForeignResource)
	}
	r.rt = rt
	r.users |= 1 << task
	if p > r.ceiling {
		r.ceiling = p
	}
	return nil
}

// Borrow returns the resource value. The caller must hold a Threshold issued
// to a task that declared r, at a level meeting r's ceiling; anything else is
// a programming error and panics. The pointer must not outlive the callback
// or task run that produced t.
func (r *Resource[T]) Borrow(t Threshold) *T {
	if !t.valid() || t.rt != r.rt {
		panic(&CeilingError{Resource: r.name, Task: t.task, Level: t.level, Ceiling: r.ceiling, Undeclared: true})
	}
	if t.task != supervisorID && r.users&(1<<t.task) == 0 {
		panic(&CeilingError{Resource: r.name, Task: t.task, Level: t.level, Ceiling: r.ceiling, Undeclared: true})
	}
	if t.level < r.ceiling {
		panic(&CeilingError{Resource: r.name, Task: t.task, Level: t.level, Ceiling: r.ceiling})
	}
	return &r.value
}

// CeilingError describes an access outside the priority-ceiling discipline.
type CeilingError struct {
	Resource   string
	Task       TaskID
	Level      Priority
	Ceiling    Priority
	Undeclared bool
}

func (e *CeilingError) Error() string {
	if e.Undeclared {
		return fmt.Sprintf("core: task %d did not declare resource %s", e.Task, e.Resource)
	}
	return fmt.Sprintf("core: resource %s (ceiling %d) accessed at priority %d", e.Resource, e.Ceiling, e.Level)
}

// Claim runs fn with r's value at a level meeting r's ceiling. If t already
// meets the ceiling no masking happens; otherwise the running priority is
// raised for the duration of fn and restored on return.
func Claim[T any](t Threshold, r *Resource[T], fn func(t Threshold, v *T)) {
	if t.level >= r.ceiling {
		fn(t, r.Borrow(t))
		return
	}
	inner, saved := t.rt.raise(t, r.ceiling)
	defer t.rt.lower(inner, saved)
	fn(inner, r.Borrow(inner))
}

// Atomic runs fn with every task masked. Keep fn short: it delays dispatch
// of everything for as long as it runs.
func Atomic(t Threshold, fn func(t Threshold)) {
	if !t.valid() {
		panic("core: Atomic called without a runtime threshold")
	}
	inner, saved := t.rt.raise(t, t.rt.top)
	defer t.rt.lower(inner, saved)
	fn(inner)
}
