package scene

import (
	"fmt"
	"reflect"
	"slices"
)

// NodeState is the attachment state of a node.
type NodeState uint8

const (
	Detached NodeState = iota
	AttachedToScene
	AttachedToParent
)

func (s NodeState) String() string {
	switch s {
	case Detached:
		return "detached"
	case AttachedToScene:
		return "attached-to-scene"
	case AttachedToParent:
		return "attached-to-parent"
	default:
		return "unknown"
	}
}

// Node is a hierarchical container owning components and child nodes.
type Node struct {
	id   NodeID
	name string

	parent *Node
	root   *Scene // set while this node is a scene root
	scene  *Scene // set while this node's subtree lives in a scene

	store    componentStore
	children []*Node

	// detaching hides the scene from Add/AddChild while a detach recursion runs so
	// re-entrant additions are stored, not attached.
	detaching bool
	destroyed bool
}

// NewNode creates a free-standing node.
func NewNode(name string) *Node {
	return NewNodeWithCapacity(name, DefaultNodeCapacity)
}

// NewNodeWithCapacity creates a node whose component store starts with room for
// capacity components.
func NewNodeWithCapacity(name string, capacity int) *Node {
	return &Node{
		id:    newNodeID(),
		name:  name,
		store: newComponentStore(capacity),
	}
}

func (n *Node) ID() NodeID        { return n.id }
func (n *Node) Name() string      { return n.name }
func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) IsDestroyed() bool { return n.destroyed }

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.name, n.id)
}

// Scene returns the scene the node is attached to, or nil.
func (n *Node) Scene() *Scene {
	if n.detaching {
		return nil
	}
	return n.scene
}

// IsAttached reports whether the node's subtree is part of a scene.
func (n *Node) IsAttached() bool {
	return n.scene != nil && !n.detaching
}

// State reports how the node is attached: as a scene root, under a parent, or not at all.
func (n *Node) State() NodeState {
	switch {
	case n.root != nil:
		return AttachedToScene
	case n.parent != nil:
		return AttachedToParent
	default:
		return Detached
	}
}

// Add stores c on the node. If the node is attached, c is attached immediately.
func (n *Node) Add(c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	if n.destroyed {
		return fmt.Errorf("add to %s: %w", n, ErrNodeDestroyed)
	}
	b := identify(c)
	if b.spent {
		return fmt.Errorf("add component %d to %s: %w", b.id, n, ErrComponentSpent)
	}
	if b.holder != nil {
		return fmt.Errorf("add component %d to %s (held by %s): %w", b.id, n, b.holder, ErrComponentAttached)
	}
	t := reflect.TypeOf(c)
	if !n.store.put(t, c) {
		return fmt.Errorf("add %s to %s: %w", TypeName(t), n, ErrDuplicateType)
	}
	b.holder = n

	if n.IsAttached() {
		n.attachComponent(c)
	}
	return nil
}

// Remove takes c off the node. It returns false if the node does not hold c. A
// component removed while attached is spent and cannot be added again.
func (n *Node) Remove(c Component) bool {
	if c == nil {
		return false
	}
	b := c.base()
	if b.holder != n {
		return false
	}
	n.store.remove(reflect.TypeOf(c))
	b.holder = nil

	if b.node == n {
		b.spent = true
		n.detachComponent(c)
	}
	return true
}

// Components returns the attached components in slot order.
func (n *Node) Components() []Component {
	out := make([]Component, 0, n.store.len())
	for _, c := range n.store.slots {
		if c.base().node == n {
			out = append(out, c)
		}
	}
	return out
}

// All returns every stored component in slot order, attached or not.
func (n *Node) All() []Component {
	return n.store.snapshot()
}

// Len is the number of stored components.
func (n *Node) Len() int { return n.store.len() }

// Lookup returns the component stored under concrete type t.
func (n *Node) Lookup(t reflect.Type) (Component, bool) {
	return n.store.lookup(t)
}

// SlotOf returns the storage slot of component type t, or -1.
func (n *Node) SlotOf(t reflect.Type) int {
	return n.store.indexOf(t)
}

// Get returns the component of type T stored on n, or nil.
func Get[T any, PT interface {
	*T
	Component
}](n *Node) PT {
	c, ok := n.store.lookup(reflect.TypeFor[PT]())
	if !ok {
		return nil
	}
	return c.(PT)
}

// RemoveType removes the component of type T from n.
func RemoveType[T any, PT interface {
	*T
	Component
}](n *Node) bool {
	c, ok := n.store.lookup(reflect.TypeFor[PT]())
	if !ok {
		return false
	}
	return n.Remove(c)
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// AddChild appends child under n. If n is attached, the child subtree attaches too.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if child == n {
		return fmt.Errorf("add %s: %w", n, ErrSelfChild)
	}
	if n.destroyed || child.destroyed {
		return fmt.Errorf("add %s under %s: %w", child, n, ErrNodeDestroyed)
	}
	if child.parent != nil || child.root != nil {
		return fmt.Errorf("add %s under %s: %w", child, n, ErrNodeAttached)
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("add %s under %s: %w", child, n, ErrCycle)
		}
	}

	child.parent = n
	n.children = append(n.children, child)
	if n.IsAttached() {
		child.attach(n.scene)
	}
	return nil
}

// RemoveChild detaches child from n. It returns false if child is not a child of n.
func (n *Node) RemoveChild(child *Node) bool {
	if child == nil || child.parent != n {
		return false
	}
	if i := slices.Index(n.children, child); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
	}
	child.parent = nil
	if child.scene != nil && !child.detaching {
		child.detach()
	}
	return true
}

// Destroy detaches the node from its parent or scene and marks it unusable.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	switch {
	case n.parent != nil:
		n.parent.RemoveChild(n)
	case n.root != nil:
		n.root.ClearRoot()
	}
	n.destroyed = true
}

// Walk visits n and its descendants depth-first until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range slices.Clone(n.children) {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// attach attaches every held component, then every child, iterating snapshots.
func (n *Node) attach(s *Scene) {
	n.scene = s
	n.detaching = false

	for _, c := range n.store.snapshot() {
		b := c.base()
		if b.holder == n && b.node == nil && n.IsAttached() {
			n.attachComponent(c)
		}
	}
	for _, child := range slices.Clone(n.children) {
		if child.parent == n && child.scene == nil && n.IsAttached() {
			child.attach(s)
		}
	}

	if n.IsAttached() {
		s.publishNode(EventNodeAttached, n)
	}
}

// detach detaches every attached component, then every child, iterating snapshots.
func (n *Node) detach() {
	s := n.scene
	n.detaching = true

	for _, c := range n.store.snapshot() {
		if c.base().node == n {
			n.detachComponent(c)
		}
	}
	for _, child := range slices.Clone(n.children) {
		if child.scene != nil && !child.detaching {
			child.detach()
		}
	}

	n.scene = nil
	n.detaching = false
	s.publishNode(EventNodeDetached, n)
}

func (n *Node) attachComponent(c Component) {
	s := n.scene
	s.manager.manage(c)

	b := c.base()
	if err := b.attach(c, n); err != nil {
		s.log.Warn("component attach skipped", logComponent(c, err)...)
		return
	}

	for _, sib := range n.store.snapshot() {
		if sib == c || sib.base().node != n || c.base().node != n {
			continue
		}
		sib.base().siblingAdded(sib, c)
		if obs, ok := sib.(SiblingObserver); ok {
			obs.OnSiblingAdded(c)
		}
	}

	s.publishComponent(EventComponentAdded, n, c)
	if a, ok := c.(Attacher); ok && b.node == n {
		a.OnAttach(n)
	}
}

func (n *Node) detachComponent(c Component) {
	s := n.scene
	if d, ok := c.(Detacher); ok {
		d.OnDetach(n)
	}
	b := c.base()
	if b.node != n {
		// the hook already moved it
		return
	}
	if err := b.detach(c, n); err != nil {
		s.log.Warn("component detach skipped", logComponent(c, err)...)
		return
	}
	s.manager.release(c)
	s.publishComponent(EventComponentRemoved, n, c)
}
