// Package treemodel defines the logical tree model the core consumes:
// a parser-produced collection of named trees built from typed elements.
// A concrete textual format (XML, JSON, ...) is expected
// to parse into this model; the core never reads the source format
// directly.
package treemodel

import (
	"fmt"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/lang"
)

// ElementKind classifies a TreeElement for validation and instantiation.
type ElementKind int

const (
	Action ElementKind = iota
	Condition
	Control
	Decorator
	Subtree
	BehaviorTree
)

func (k ElementKind) String() string {
	switch k {
	case Action:
		return "Action"
	case Condition:
		return "Condition"
	case Control:
		return "Control"
	case Decorator:
		return "Decorator"
	case Subtree:
		return "Subtree"
	case BehaviorTree:
		return "BehaviorTree"
	default:
		return "Unknown"
	}
}

// reservedAttributes names attributes the core itself interprets;
// a parser or author may not also bind them as ports.
var reservedAttributes = map[string]bool{
	"name": true, "ID": true, "_autoremap": true,
	"_successIf": true, "_failureIf": true, "_skipIf": true, "_while": true,
	"_onSuccess": true, "_onFailure": true, "_onHalted": true,
	"_post": true, "_uid": true, "_fullpath": true,
}

// IsReservedAttribute reports whether name is reserved by the core,
// including any attribute with a leading underscore.
func IsReservedAttribute(name string) bool {
	if reservedAttributes[name] {
		return true
	}
	return len(name) > 0 && name[0] == '_'
}

// TreeElement is one node of a logical tree, as produced by a parser.
// Attrs holds every non-reserved attribute value verbatim (blackboard
// pointer or literal text); reserved ones are surfaced through the
// named fields below.
type TreeElement struct {
	Kind     ElementKind
	ID       string // registered node-type id, or subtree/tree id
	Name     string // author-facing instance name ("name" attribute)
	Attrs    map[string]string
	Children []*TreeElement

	AutoRemap bool
	SuccessIf string
	FailureIf string
	SkipIf    string
	While     string
	OnSuccess string
	OnFailure string
	OnHalted  string
	Post      string
}

// Model is a parsed collection of named trees.
type Model struct {
	Trees    map[string]*TreeElement
	MainTree string
}

// Validate enforces structural arity rules over every tree in
// the model: Action/Condition take no children, Control takes at least
// one, Decorator and Subtree take exactly one.
func (m *Model) Validate() error {
	for _, root := range m.Trees {
		if err := validateElement(root); err != nil {
			return thicket.WithStack(err)
		}
	}
	return nil
}

func validateElement(e *TreeElement) error {
	n := len(e.Children)
	switch e.Kind {
	case Action, Condition:
		if n != 0 {
			return malformed(e, "takes no children, got %s", lang.Card(n, "child"))
		}
	case Control:
		if n < 1 {
			return malformed(e, "requires at least one child")
		}
	case Decorator, Subtree:
		if n != 1 {
			return malformed(e, "requires exactly one child, got %s", lang.Card(n, "child"))
		}
	}
	for _, c := range e.Children {
		if err := validateElement(c); err != nil {
			return err
		}
	}
	return nil
}

func malformed(e *TreeElement, format string, args ...any) error {
	label := e.ID
	if e.Name != "" {
		label = e.Name + " (" + e.ID + ")"
	}
	return thicket.WithStack(fmt.Errorf("tree element %s [%s]: "+format, append([]any{label, e.Kind.String()}, args...)...))
}
