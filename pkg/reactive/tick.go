package reactive

// TickQueue is the default "run soon" primitive: callbacks wait until the host
// drains the queue.
type TickQueue struct {
	callbacks []func()
}

// Schedule appends fn.
func (q *TickQueue) Schedule(fn func()) {
	q.callbacks = append(q.callbacks, fn)
}

// Len returns the number of waiting callbacks.
func (q *TickQueue) Len() int {
	return len(q.callbacks)
}

// Drain runs callbacks until the queue is empty, including ones scheduled while
// draining.
func (q *TickQueue) Drain() int {
	ran := 0
	for len(q.callbacks) > 0 {
		pending := q.callbacks
		q.callbacks = nil
		for _, cb := range pending {
			cb()
			ran++
		}
	}
	return ran
}
