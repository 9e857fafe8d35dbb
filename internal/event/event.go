// Package event provides a small typed publish/subscribe primitive.
package event

// Emitter delivers values to subscribers in subscription order.
// It is not safe for concurrent use.
type Emitter[T any] struct {
	next uint64
	subs []subscription[T]
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is a no-op.
func (e *Emitter[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	e.next++
	id := e.next
	e.subs = append(e.subs, subscription[T]{id: id, fn: fn})

	done := false
	return func() {
		if done {
			return
		}
		done = true
		for i, s := range e.subs {
			if s.id == id {
				// full slice expression forces a copy so in-flight Emit snapshots stay intact
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every subscriber registered at the time of the call.
func (e *Emitter[T]) Emit(v T) {
	subs := e.subs
	for _, s := range subs {
		s.fn(v)
	}
}

func (e *Emitter[T]) Len() int { return len(e.subs) }
