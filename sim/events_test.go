package sim

import "testing"

func TestEventQueueOrder(t *testing.T) {
	var q eventQueue
	var fired []int

	mk := func(at uint64, id int) *event {
		return &event{WakeTime: at, Handler: func(*event) uint8 {
			fired = append(fired, id)
			return evDone
		}}
	}

	a, b, c, d := mk(30, 1), mk(10, 2), mk(30, 3), mk(20, 4)
	q.schedule(a)
	q.schedule(b)
	q.schedule(c)
	q.schedule(d)
	q.cancel(d)
	q.cancel(d) // second cancel is a no-op

	for e := q.pop(); e != nil; e = q.pop() {
		q.fire(e)
	}

	want := []int{2, 1, 3}
	if len(fired) != len(want) {
		t.Fatalf("Expected %v, got %v", want, fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("Position %d: expected %d, got %d", i, want[i], fired[i])
		}
	}
}

func TestEventReschedule(t *testing.T) {
	var q eventQueue
	count := 0
	e := &event{WakeTime: 5}
	e.Handler = func(e *event) uint8 {
		count++
		if count == 3 {
			return evDone
		}
		e.WakeTime += 5
		return evReschedule
	}
	q.schedule(e)

	for next := q.pop(); next != nil; next = q.pop() {
		q.fire(next)
	}
	if count != 3 || e.WakeTime != 15 {
		t.Errorf("Expected 3 firings ending at 15, got %d at %d", count, e.WakeTime)
	}
}
