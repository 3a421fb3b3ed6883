// Package core implements the interrupt-driven runtime: a fixed task table
// dispatched by static priority, and shared resources guarded by the
// priority-ceiling protocol.
//
// A task never locks anything. It reaches shared state through a Threshold,
// a token proving the code runs at or above some priority. Tasks receive a
// Threshold at their own priority when dispatched; Claim and Atomic hand out
// a raised Threshold for the length of a callback and restore the previous
// level afterwards. A Resource only yields its value for a Threshold that
// meets its ceiling and belongs to a task that declared it.
package core

// Priority is a task's static dispatch level. Higher values preempt lower.
type Priority uint8

const (
	// IdlePriority is the level of the background loop. No task may use it.
	IdlePriority Priority = 0
	// MaxPriority is the highest level a task may be assigned.
	MaxPriority Priority = 15
)

// TaskID identifies an interrupt line. Each line is bound to exactly one task.
type TaskID uint8

// MaxTasks bounds the task table.
const MaxTasks = 16

// Reserved identities that are not hardware lines.
const (
	idleID       TaskID = MaxTasks     // the idle loop
	supervisorID TaskID = MaxTasks + 1 // Init and Inspect
)

// Threshold is the running-priority token. The zero value holds no rights.
type Threshold struct {
	level Priority
	task  TaskID
	rt    *Runtime
}

// Level returns the priority the holder is running at.
func (t Threshold) Level() Priority { return t.level }

// Task returns the identity the token was issued to.
func (t Threshold) Task() TaskID { return t.task }

func (t Threshold) valid() bool { return t.rt != nil }
