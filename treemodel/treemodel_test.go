package treemodel

import "testing"

func TestIsReservedAttribute(t *testing.T) {
	cases := map[string]bool{
		"name": true, "ID": true, "_autoremap": true, "_custom": true,
		"port": false, "value": false,
	}
	for name, want := range cases {
		if got := IsReservedAttribute(name); got != want {
			t.Errorf("IsReservedAttribute(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestValidateActionRejectsChildren(t *testing.T) {
	m := &Model{Trees: map[string]*TreeElement{
		"main": {Kind: Action, ID: "Foo", Children: []*TreeElement{{Kind: Action, ID: "Bar"}}},
	}}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected an error for an Action with a child")
	}
}

func TestValidateControlRequiresAtLeastOneChild(t *testing.T) {
	m := &Model{Trees: map[string]*TreeElement{
		"main": {Kind: Control, ID: "Sequence"},
	}}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected an error for a childless Control")
	}
}

func TestValidateDecoratorRequiresExactlyOneChild(t *testing.T) {
	m := &Model{Trees: map[string]*TreeElement{
		"main": {Kind: Decorator, ID: "Inverter", Children: []*TreeElement{
			{Kind: Action, ID: "A"}, {Kind: Action, ID: "B"},
		}},
	}}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected an error for a Decorator with two children")
	}
}

func TestValidateAcceptsWellFormedTree(t *testing.T) {
	m := &Model{Trees: map[string]*TreeElement{
		"main": {Kind: Control, ID: "Sequence", Children: []*TreeElement{
			{Kind: Action, ID: "A"},
			{Kind: Decorator, ID: "Inverter", Children: []*TreeElement{{Kind: Condition, ID: "C"}}},
		}},
	}}
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
