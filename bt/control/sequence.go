package control

import "github.com/thicketbt/thicket/bt"

// Sequence ticks children starting at a remembered index. Success advances
// to the next child; Failure resets the index and fails; Running stays at
// the current index; Skipped advances without affecting the eventual
// Success/Skipped distinction.
//
// SequenceWithMemory is the same node with keepIndexOnFailure set: on
// Failure the index is not reset, so the next tick resumes at the failing
// child rather than restarting from the beginning.
type Sequence struct {
	children           []*bt.Node
	index              int
	allSkippedSoFar    bool
	keepIndexOnFailure bool
}

// NewSequence builds a Sequence over children.
func NewSequence(children []*bt.Node) *Sequence {
	return &Sequence{children: children, allSkippedSoFar: true}
}

// NewSequenceWithMemory builds a Sequence that does not reset its index on
// Failure.
func NewSequenceWithMemory(children []*bt.Node) *Sequence {
	return &Sequence{children: children, allSkippedSoFar: true, keepIndexOnFailure: true}
}

func (s *Sequence) Tick() (bt.Status, error) {
	for s.index < len(s.children) {
		status, err := s.children[s.index].ExecuteTick()
		if err != nil {
			return bt.Idle, err
		}
		switch status {
		case bt.Success:
			s.allSkippedSoFar = false
			s.index++
		case bt.Skipped:
			s.index++
		case bt.Running:
			return bt.Running, nil
		case bt.Failure:
			resetAllIdle(s.children)
			if !s.keepIndexOnFailure {
				s.index = 0
				s.allSkippedSoFar = true
			}
			return bt.Failure, nil
		default:
			return bt.Idle, bt.NewRuntimeError("Sequence: child returned Idle")
		}
	}
	result := bt.Success
	if s.allSkippedSoFar {
		result = bt.Skipped
	}
	resetAllIdle(s.children)
	s.index = 0
	s.allSkippedSoFar = true
	return result, nil
}

func (s *Sequence) Halt() {
	if s.index < len(s.children) {
		haltRunning(s.children[s.index])
	}
	s.index = 0
	s.allSkippedSoFar = true
}
