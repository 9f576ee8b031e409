// Package sharedstate holds small mutable values meant to be placed on a
// blackboard as KindCustom entries and read/written from both a tick and
// a ThreadedAction's worker goroutine. Counter is generated from
// CounterShared by portaccessors; see counter_gen.go.
package sharedstate

//go:generate go run ../internal/gen/portaccessors -in . -out counter_gen.go -pkg sharedstate

// CounterShared is the plain data a Counter wraps with locking.
type CounterShared struct {
	Value int64
}

// NewCounter builds a ready-to-use Counter over a fresh CounterShared.
func NewCounter() *Counter {
	return &Counter{Unsafe: &CounterShared{}}
}
