package bt

// CoroFuncs is the callback set for a CoroAction. Deprecated: new code
// should use NewStatefulAction directly. CoroAction exists only to let
// node registrations written against a start/poll/halt coroutine-shaped
// API plug into the same StatefulAction machine everything else uses;
// it does not run a real stackful coroutine.
type CoroFuncs struct {
	Start func() (Status, error)
	Poll  func() (Status, error)
	Halt  func()
}

// NewCoroAction adapts funcs into a StatefulAction. Prefer
// NewStatefulAction in new code; this exists for API-shape parity with
// ports that modeled coroutine actions as start/poll/halt.
func NewCoroAction(funcs CoroFuncs) *StatefulAction {
	return NewStatefulAction(StatefulFuncs{
		OnStart:   funcs.Start,
		OnRunning: funcs.Poll,
		OnHalt:    funcs.Halt,
	})
}
