package core

import (
	"context"
	"errors"
	"testing"
)

func mustPanic(t *testing.T, name string, fn func()) (recovered any) {
	t.Helper()
	defer func() {
		recovered = recover()
		if recovered == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
	return nil
}

func TestNewRejectsBadTables(t *testing.T) {
	noop := func(Threshold) {}

	tests := []struct {
		name  string
		tasks []Task
		want  error
	}{
		{"range", []Task{{ID: MaxTasks, Priority: 1, Run: noop}}, ErrTaskRange},
		{"duplicate", []Task{{ID: 1, Priority: 1, Run: noop}, {ID: 1, Priority: 2, Run: noop}}, ErrDuplicateTask},
		{"idle priority", []Task{{ID: 1, Priority: IdlePriority, Run: noop}}, ErrBadPriority},
		{"too high", []Task{{ID: 1, Priority: MaxPriority + 1, Run: noop}}, ErrBadPriority},
		{"no handler", []Task{{ID: 1, Priority: 1}}, ErrNoHandler},
	}
	for _, tt := range tests {
		_, err := New(tt.tasks, Idle{})
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestNewRejectsForeignResource(t *testing.T) {
	shared := NewResource("counter", 0)
	noop := func(Threshold) {}

	if _, err := New([]Task{{ID: 0, Priority: 1, Uses: []Shared{shared}, Run: noop}}, Idle{}); err != nil {
		t.Fatalf("first runtime: %v", err)
	}
	_, err := New([]Task{{ID: 0, Priority: 1, Uses: []Shared{shared}, Run: noop}}, Idle{})
	if !errors.Is(err, errForeignResource) {
		t.Errorf("Expected foreign resource error, got %v", err)
	}
}

func TestCeilingsFollowDeclarations(t *testing.T) {
	low := NewResource("low", 0)
	both := NewResource("both", 0)
	idleOnly := NewResource("idle", 0)
	noop := func(Threshold) {}

	_, err := New([]Task{
		{ID: 0, Priority: 1, Uses: []Shared{low, both}, Run: noop},
		{ID: 1, Priority: 3, Uses: []Shared{both}, Run: noop},
	}, Idle{Uses: []Shared{idleOnly, low}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if low.Ceiling() != 1 {
		t.Errorf("Expected ceiling 1 for low, got %d", low.Ceiling())
	}
	if both.Ceiling() != 3 {
		t.Errorf("Expected ceiling 3 for both, got %d", both.Ceiling())
	}
	if idleOnly.Ceiling() != IdlePriority {
		t.Errorf("Expected idle ceiling, got %d", idleOnly.Ceiling())
	}
}

func TestBorrowEnforcesDiscipline(t *testing.T) {
	shared := NewResource("shared", 0)
	private := NewResource("private", 0)

	var rt *Runtime
	var err error
	rt, err = New([]Task{
		{ID: 0, Priority: 1, Uses: []Shared{shared}, Run: func(th Threshold) {
			mustPanic(t, "below ceiling", func() { shared.Borrow(th) })
			r := mustPanic(t, "undeclared", func() { private.Borrow(th) })
			if ce, ok := r.(*CeilingError); !ok || !ce.Undeclared {
				t.Errorf("Expected undeclared CeilingError, got %v", r)
			}
			Claim(th, shared, func(inner Threshold, v *int) {
				if inner.Level() != 2 {
					t.Errorf("Expected claim to raise to 2, got %d", inner.Level())
				}
				*v = 7
			})
			if rt.Level() != 1 {
				t.Errorf("Expected level restored to 1, got %d", rt.Level())
			}
		}},
		{ID: 1, Priority: 2, Uses: []Shared{shared, private}, Run: func(Threshold) {}},
	}, Idle{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mustPanic(t, "zero threshold", func() { shared.Borrow(Threshold{}) })

	rt.Interrupt(0)
	rt.Inspect(func(th Threshold) {
		if got := *shared.Borrow(th); got != 7 {
			t.Errorf("Expected 7 after claim, got %d", got)
		}
	})
}

func TestPreemptionAndArrivalOrder(t *testing.T) {
	var order []string
	var rt *Runtime

	log := func(name string) func(Threshold) {
		return func(Threshold) { order = append(order, name) }
	}

	rt, err := New([]Task{
		{ID: 0, Name: "low", Priority: 1, Run: func(th Threshold) {
			order = append(order, "low:start")
			rt.Interrupt(2) // equal priority, waits
			rt.Interrupt(3) // equal priority, waits behind 2
			rt.Request(th, 1)
			order = append(order, "low:end")
		}},
		{ID: 1, Name: "high", Priority: 2, Run: log("high")},
		{ID: 2, Name: "peer-a", Priority: 1, Run: log("peer-a")},
		{ID: 3, Name: "peer-b", Priority: 1, Run: log("peer-b")},
	}, Idle{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rt.Interrupt(0)

	want := []string{"low:start", "high", "low:end", "peer-a", "peer-b"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Step %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestRequestSlotDropsWhenFull(t *testing.T) {
	runs := 0
	var rt *Runtime
	var posted [2]bool

	rt, err := New([]Task{
		{ID: 0, Priority: 1, Run: func(th Threshold) {
			posted[0] = rt.Request(th, 1)
			posted[1] = rt.Request(th, 1)
		}},
		{ID: 1, Priority: 1, Run: func(Threshold) { runs++ }},
	}, Idle{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rt.Interrupt(0)

	if !posted[0] || posted[1] {
		t.Errorf("Expected first request posted and second dropped, got %v", posted)
	}
	if runs != 1 {
		t.Errorf("Expected one run, got %d", runs)
	}
}

func TestAtomicDefersInterrupts(t *testing.T) {
	counter := NewResource("counter", uint32(0))
	var rt *Runtime
	ran := false

	rt, err := New([]Task{
		{ID: 4, Priority: 1, Uses: []Shared{counter}, Run: func(th Threshold) {
			ran = true
			*counter.Borrow(th) += 1
		}},
	}, Idle{Uses: []Shared{counter}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rt.Inspect(func(Threshold) {})

	idle := Threshold{level: IdlePriority, task: idleID, rt: rt}
	Atomic(idle, func(th Threshold) {
		rt.Interrupt(4)
		if ran {
			t.Error("Task ran inside atomic section")
		}
		*counter.Borrow(th) += 10
	})
	if !ran {
		t.Error("Task did not run after atomic section")
	}
	rt.Inspect(func(th Threshold) {
		if got := *counter.Borrow(th); got != 11 {
			t.Errorf("Expected 11, got %d", got)
		}
	})
}

func TestFaultHaltsRuntime(t *testing.T) {
	boom := errors.New("boom")
	var rt *Runtime
	var handled error
	runs := 0

	rt, err := New([]Task{
		{ID: 0, Priority: 1, Run: func(th Threshold) {
			runs++
			rt.Fault(th, boom)
			rt.Fault(th, errors.New("second"))
		}},
	}, Idle{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rt.SetFaultHandler(func(err error) { handled = err })

	rt.Interrupt(0)
	if rt.Interrupt(0) {
		t.Error("Interrupt accepted after halt")
	}
	if runs != 1 {
		t.Errorf("Expected one run, got %d", runs)
	}
	if !errors.Is(handled, boom) || !errors.Is(rt.Err(), boom) {
		t.Errorf("Expected latched boom, got handler=%v err=%v", handled, rt.Err())
	}

	err = rt.RunIdle(context.Background())
	if !errors.Is(err, ErrHalted) || !errors.Is(err, boom) {
		t.Errorf("Expected halted error wrapping boom, got %v", err)
	}

	events := rt.Trace().Events()
	if len(events) != 1 || events[0].EventType != EvtFault {
		t.Errorf("Expected one fault event, got %v", events)
	}
}

func TestRunIdleStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	iterations := 0

	rt, err := New(nil, Idle{Run: func(th Threshold) {
		if th.Level() != IdlePriority {
			t.Errorf("Expected idle level, got %d", th.Level())
		}
		iterations++
		if iterations == 3 {
			cancel()
		}
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := rt.RunIdle(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if iterations != 3 {
		t.Errorf("Expected 3 idle iterations, got %d", iterations)
	}
}

func TestElapsedWraps(t *testing.T) {
	if got := Elapsed(0xFFFFFFF0, 0x10); got != 0x20 {
		t.Errorf("Expected 0x20, got %#x", got)
	}
	if got := CyclesFromUS(50, 72000000); got != 3600 {
		t.Errorf("Expected 3600 cycles, got %d", got)
	}
	if got := CyclesToUS(3600, 72000000); got != 50 {
		t.Errorf("Expected 50us, got %d", got)
	}
	// five minutes at 72 MHz does not fit in 32 bits
	if got := CyclesFromUS(300000000, 72000000); got != 21600000000 {
		t.Errorf("Expected 21600000000 cycles, got %d", got)
	}
}
