// Package port implements the bridge between nodes and the blackboard:
// blackboard pointer syntax, literal parsing, defaults, and the registered
// node manifest ports are checked against.
package port

import "github.com/thicketbt/thicket/anyvalue"

// Kind classifies a registered node for model validation, mirroring
// bt.Kind but kept here to avoid an import cycle (bt depends on port for
// Manifest; port must not depend back on bt).
type Kind uint8

const (
	KindAction Kind = iota
	KindCondition
	KindControl
	KindDecorator
	KindSubtree
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "Action"
	case KindCondition:
		return "Condition"
	case KindControl:
		return "Control"
	case KindDecorator:
		return "Decorator"
	case KindSubtree:
		return "Subtree"
	default:
		return "Unknown"
	}
}

// Manifest describes a registered node type: its id, Kind, and the ports
// it declares.
type Manifest struct {
	ID    string
	Kind  Kind
	Ports []anyvalue.PortInfo
}

// PortByName finds a declared port by name, if any.
func (m *Manifest) PortByName(name string) (anyvalue.PortInfo, bool) {
	if m == nil {
		return anyvalue.PortInfo{}, false
	}
	for _, p := range m.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return anyvalue.PortInfo{}, false
}
