package batch

// Observer receives completion notifications from Run. Implementations
// must be safe for concurrent use; notifications arrive from worker
// goroutines in completion order, which is unconstrained.
//
// Observers exist for coarse progress indication only; the runner's
// output never depends on them.
type Observer interface {
	// ItemCompleted is called exactly once per item. index is the
	// item's position in the input; err is nil on success.
	ItemCompleted(index int, err error)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(index int, err error)

// ItemCompleted implements Observer.
func (f ObserverFunc) ItemCompleted(index int, err error) {
	f(index, err)
}
