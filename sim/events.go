package sim

// event is a scheduled hardware occurrence: a transfer finishing, a timer
// update, bytes arriving on the wire.
type event struct {
	WakeTime uint64
	Handler  func(*event) uint8
	Next     *event
	queued   bool
}

const (
	evDone       = 0
	evReschedule = 1
)

// eventQueue is a singly linked list sorted by WakeTime. Events due at the
// same time keep their scheduling order.
type eventQueue struct {
	head *event
}

// schedule adds an event in sorted order, moving it if already queued
func (q *eventQueue) schedule(e *event) {
	if e.queued {
		q.cancel(e)
	}
	e.queued = true
	if q.head == nil || e.WakeTime < q.head.WakeTime {
		e.Next = q.head
		q.head = e
		return
	}

	current := q.head
	for current.Next != nil && current.Next.WakeTime <= e.WakeTime {
		current = current.Next
	}

	e.Next = current.Next
	current.Next = e
}

// cancel removes e if it is queued
func (q *eventQueue) cancel(e *event) {
	if e == nil || !e.queued {
		return
	}
	e.queued = false
	if q.head == e {
		q.head = e.Next
		e.Next = nil
		return
	}
	for current := q.head; current != nil; current = current.Next {
		if current.Next == e {
			current.Next = e.Next
			e.Next = nil
			return
		}
	}
}

func (q *eventQueue) peek() *event {
	return q.head
}

// pop removes and returns the earliest event
func (q *eventQueue) pop() *event {
	e := q.head
	if e == nil {
		return nil
	}
	q.head = e.Next
	e.Next = nil // Clear Next pointer to avoid circular references
	e.queued = false
	return e
}

// fire runs e and puts it back if its handler asks to be rescheduled.
func (q *eventQueue) fire(e *event) {
	if e.Handler(e) == evReschedule {
		q.schedule(e)
	}
}
