package core

import (
	"context"
	"errors"
	"fmt"
)

// Task is a handler bound 1:1 to an interrupt line.
type Task struct {
	ID       TaskID
	Name     string
	Priority Priority
	// Uses lists every resource Run touches, including through Claim.
	Uses []Shared
	Run  func(t Threshold)
}

// Idle is the background loop body. Run is called again every time it
// returns and no task is pending.
type Idle struct {
	Uses []Shared
	Run  func(t Threshold)
}

// FaultHandler is called once when a task reports a fatal condition.
type FaultHandler func(err error)

var (
	ErrTaskRange     = errors.New("task id out of range")
	ErrDuplicateTask = errors.New("interrupt line bound twice")
	ErrBadPriority   = errors.New("task priority out of range")
	ErrNoHandler     = errors.New("task has no handler")
	ErrHalted        = errors.New("runtime halted")
)

// Runtime dispatches pending tasks by priority and arbitrates resources.
type Runtime struct {
	tasks   [MaxTasks]Task
	bound   uint32
	pending [MaxTasks]uint32 // arrival stamp, 0 when the line is not pending
	stamp   uint32
	level   Priority
	top     Priority
	idle    Idle
	halted  bool
	fault   error
	onFault FaultHandler
	trace   Trace
}

// New builds the task table and binds every declared resource, computing
// its ceiling from the declaring tasks. Any inconsistency is rejected here,
// before a single interrupt is enabled.
func New(tasks []Task, idle Idle) (*Runtime, error) {
	rt := &Runtime{idle: idle}
	for _, task := range tasks {
		if task.ID >= MaxTasks {
			return nil, fmt.Errorf("%s: %w", task.Name, ErrTaskRange)
		}
		if rt.bound&(1<<task.ID) != 0 {
			return nil, fmt.Errorf("%s (line %d): %w", task.Name, task.ID, ErrDuplicateTask)
		}
		if task.Priority == IdlePriority || task.Priority > MaxPriority {
			return nil, fmt.Errorf("%s (priority %d): %w", task.Name, task.Priority, ErrBadPriority)
		}
		if task.Run == nil {
			return nil, fmt.Errorf("%s: %w", task.Name, ErrNoHandler)
		}
		rt.tasks[task.ID] = task
		rt.bound |= 1 << task.ID
		if task.Priority > rt.top {
			rt.top = task.Priority
		}
		for _, r := range task.Uses {
			if err := r.declare(rt, task.ID, task.Priority); err != nil {
				return nil, fmt.Errorf("%s: %w", task.Name, err)
			}
		}
	}
	for _, r := range idle.Uses {
		if err := r.declare(rt, idleID, IdlePriority); err != nil {
			return nil, fmt.Errorf("idle: %w", err)
		}
	}
	return rt, nil
}

// SetFaultHandler installs the platform reaction to a fatal fault, such as a
// watchdog reset.
func (rt *Runtime) SetFaultHandler(h FaultHandler) {
	rt.onFault = h
}

// Trace returns the runtime's event ring.
func (rt *Runtime) Trace() *Trace {
	return &rt.trace
}

// Interrupt marks a hardware line pending and dispatches it if it outranks
// the running level. Platform interrupt handlers call this. It reports false
// if the line is unbound, already pending or the runtime has halted.
func (rt *Runtime) Interrupt(id TaskID) bool {
	ok := rt.pend(id)
	rt.dispatch()
	return ok
}

// Request posts a software request for task id from inside a running task.
// The slot holds one request: posting to a line that is already pending is
// dropped and reported as false. A higher-priority target preempts the
// caller before Request returns; anything else runs after the caller.
func (rt *Runtime) Request(t Threshold, id TaskID) bool {
	if !t.valid() || t.rt != rt {
		panic("core: Request called without a runtime threshold")
	}
	return rt.Interrupt(id)
}

func (rt *Runtime) pend(id TaskID) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if rt.halted || id >= MaxTasks || rt.bound&(1<<id) == 0 || rt.pending[id] != 0 {
		return false
	}
	rt.stamp++
	if rt.stamp == 0 {
		rt.stamp = 1
	}
	rt.pending[id] = rt.stamp
	return true
}

// next picks the pending task to run above level: highest priority first,
// equal priorities in arrival order. Interrupts must be disabled.
func (rt *Runtime) next(level Priority) (TaskID, bool) {
	var (
		best  TaskID
		found bool
	)
	for id := TaskID(0); id < MaxTasks; id++ {
		stamp := rt.pending[id]
		if stamp == 0 || rt.tasks[id].Priority <= level {
			continue
		}
		if !found {
			best, found = id, true
			continue
		}
		bp, p := rt.tasks[best].Priority, rt.tasks[id].Priority
		if p > bp || (p == bp && int32(stamp-rt.pending[best]) < 0) {
			best = id
		}
	}
	return best, found
}

// dispatch runs every pending task that outranks the current level. A task
// runs to completion; it can only be preempted by one of higher priority.
func (rt *Runtime) dispatch() {
	for {
		state := disableInterrupts()
		if rt.halted {
			restoreInterrupts(state)
			return
		}
		id, ok := rt.next(rt.level)
		if !ok {
			restoreInterrupts(state)
			return
		}
		task := &rt.tasks[id]
		rt.pending[id] = 0
		prev := rt.level
		rt.level = task.Priority
		restoreInterrupts(state)

		task.Run(Threshold{level: task.Priority, task: id, rt: rt})

		state = disableInterrupts()
		rt.level = prev
		restoreInterrupts(state)
	}
}

type savedLevel struct {
	prev Priority
	irq  irqState
}

// raise lifts the running level to at least level and masks interrupts until
// the matching lower.
func (rt *Runtime) raise(t Threshold, level Priority) (Threshold, savedLevel) {
	irq := disableInterrupts()
	saved := savedLevel{prev: rt.level, irq: irq}
	if level < t.level {
		level = t.level
	}
	if level > rt.level {
		rt.level = level
	}
	return Threshold{level: level, task: t.task, rt: rt}, saved
}

func (rt *Runtime) lower(_ Threshold, saved savedLevel) {
	rt.level = saved.prev
	restoreInterrupts(saved.irq)
	rt.dispatch()
}

// Init runs fn with access to every bound resource before interrupts are
// serviced, the way a reset handler prepares peripherals.
func (rt *Runtime) Init(fn func(t Threshold)) {
	rt.supervise(fn)
}

// Inspect runs fn with every task masked and read access to every bound
// resource. It exists for diagnostics outside the task set.
func (rt *Runtime) Inspect(fn func(t Threshold)) {
	rt.supervise(fn)
}

func (rt *Runtime) supervise(fn func(t Threshold)) {
	inner, saved := rt.raise(Threshold{level: rt.level, task: supervisorID, rt: rt}, rt.top)
	defer rt.lower(inner, saved)
	fn(inner)
}

// RunIdle drives the background loop until ctx is done or the runtime halts.
// Pending tasks are dispatched between idle iterations.
func (rt *Runtime) RunIdle(ctx context.Context) error {
	t := Threshold{level: IdlePriority, task: idleID, rt: rt}
	for {
		rt.dispatch()
		if rt.Halted() {
			return fmt.Errorf("%w: %w", ErrHalted, rt.Err())
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if rt.idle.Run != nil {
			rt.idle.Run(t)
		}
	}
}

// Fault latches a fatal error. Dispatch stops, pending lines are discarded
// and the fault handler runs once. Later faults are ignored.
func (rt *Runtime) Fault(t Threshold, err error) {
	state := disableInterrupts()
	if rt.halted {
		restoreInterrupts(state)
		return
	}
	rt.halted = true
	rt.fault = err
	rt.pending = [MaxTasks]uint32{}
	restoreInterrupts(state)

	rt.trace.Record(EvtFault, uint8(t.task), 0, 0, 0)
	DebugPrintln("fault: " + err.Error())
	if rt.onFault != nil {
		rt.onFault(err)
	}
}

// Halted reports whether a fault stopped the runtime.
func (rt *Runtime) Halted() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return rt.halted
}

// Err returns the latched fault, if any.
func (rt *Runtime) Err() error {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return rt.fault
}

// Level returns the running priority.
func (rt *Runtime) Level() Priority {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return rt.level
}
