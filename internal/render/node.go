// Package render is the narrow boundary between HUD components and the
// host's widget tree. Components own a Node for their whole lifetime and
// patch it in place; the host-integration layer mirrors those mutations
// into real on-screen elements. An Observer hook exposes every mutation,
// which the tests use to prove the diff engine touches only what changed.
package render

// Observer is notified of every mutation applied to a node tree.
type Observer interface {
	NodeMutated(node *Node, op string)
}

// Mutation op names reported to observers.
const (
	OpSetClass        = "set-class"
	OpSetAttr         = "set-attr"
	OpRemoveAttr      = "remove-attr"
	OpSetText         = "set-text"
	OpReplaceChildren = "replace-children"
)

// Node is one mounted element. Mutators are no-ops when the value is
// already current, so observers only see real changes.
type Node struct {
	Kind string

	classes  map[string]bool
	attrs    map[string]string
	text     string
	children []*Node
	observer Observer
}

// NewNode constructs a node of the given kind sharing the observer.
func NewNode(kind string, observer Observer) *Node {
	return &Node{
		Kind:     kind,
		classes:  make(map[string]bool),
		attrs:    make(map[string]string),
		observer: observer,
	}
}

// SetClass toggles a class flag.
func (n *Node) SetClass(name string, on bool) {
	if n.classes[name] == on {
		if !on {
			delete(n.classes, name)
		}
		return
	}
	if on {
		n.classes[name] = true
	} else {
		delete(n.classes, name)
	}
	n.notify(OpSetClass)
}

// HasClass reports whether the class flag is set.
func (n *Node) HasClass(name string) bool {
	return n.classes[name]
}

// SetAttr sets an attribute value.
func (n *Node) SetAttr(name, value string) {
	if current, ok := n.attrs[name]; ok && current == value {
		return
	}
	n.attrs[name] = value
	n.notify(OpSetAttr)
}

// RemoveAttr clears an attribute if present.
func (n *Node) RemoveAttr(name string) {
	if _, ok := n.attrs[name]; !ok {
		return
	}
	delete(n.attrs, name)
	n.notify(OpRemoveAttr)
}

// Attr returns an attribute value and whether it is set.
func (n *Node) Attr(name string) (string, bool) {
	value, ok := n.attrs[name]
	return value, ok
}

// SetText replaces the node's text content.
func (n *Node) SetText(text string) {
	if n.text == text {
		return
	}
	n.text = text
	n.notify(OpSetText)
}

// Text returns the node's text content.
func (n *Node) Text() string {
	return n.text
}

// ReplaceChildren swaps the child list wholesale. The node itself
// survives, which is how cells toggle between empty and filled subtrees
// without recreating their root.
func (n *Node) ReplaceChildren(children ...*Node) {
	n.children = append(n.children[:0], children...)
	n.notify(OpReplaceChildren)
}

// Children returns the current child list.
func (n *Node) Children() []*Node {
	return n.children
}

// NewChild constructs a node of the given kind that shares this node's
// observer. It does not attach the child; callers compose subtrees and
// attach them with ReplaceChildren.
func (n *Node) NewChild(kind string) *Node {
	return NewNode(kind, n.observer)
}

func (n *Node) notify(op string) {
	if n.observer != nil {
		n.observer.NodeMutated(n, op)
	}
}
