package event

import (
	"reflect"
	"sync"
)

// Bus carries two lanes of typed events.
//
// The synchronous lane (Publish) calls every handler before returning; the
// committer uses it so listeners can cancel a record before it is applied.
// The deferred lane (Emit) is double-buffered: events emitted in tick N are
// delivered in tick N+1 when the loop calls SwapBuffers and DispatchAll.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeKey[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Publish delivers ev to every handler of T right away and returns how many
// handlers ran.
func Publish[T any](b *Bus, ev T) int {
	hs := b.snapshot(typeKey[T]())
	for _, h := range hs {
		h(ev)
	}
	return len(hs)
}

// HasSubscribers reports whether anything listens for T.
func HasSubscribers[T any](b *Bus) bool {
	return len(b.snapshot(typeKey[T]())) > 0
}

func (b *Bus) snapshot(t reflect.Type) []func(any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handlers[t]
}

// Emit queues an event into the back buffer (readable next tick).
func Emit[T any](b *Bus, ev T) {
	t := typeKey[T]()
	b.back[t] = append(b.back[t], ev)
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
func (b *Bus) DispatchAll() {
	for t, events := range b.front {
		hs := b.snapshot(t)
		for _, ev := range events {
			for _, h := range hs {
				h(ev)
			}
		}
	}
}

// Pending returns the number of events waiting in the back buffer.
func (b *Bus) Pending() int {
	n := 0
	for _, evs := range b.back {
		n += len(evs)
	}
	return n
}
