package scene

import (
	"reflect"
	"slices"
)

// Component is a capability instance hosted by a Node. Concrete components are
// pointers to structs that embed Base.
type Component interface {
	base() *Base
}

// Attacher is implemented by components that run logic once attached and bound.
type Attacher interface {
	OnAttach(n *Node)
}

// Detacher is implemented by components that run logic before their bindings are torn
// down.
type Detacher interface {
	OnDetach(n *Node)
}

// SiblingObserver is implemented by components that react to a sibling attaching to
// the same node. The call is synchronous, after slot discovery for the new sibling.
type SiblingObserver interface {
	OnSiblingAdded(sibling Component)
}

// ReadinessFunc receives readiness flips of a component.
type ReadinessFunc func(c Component, ready bool)

type readinessListener struct {
	id uint64
	fn ReadinessFunc
}

// Base carries the runtime state every component needs. Embed it by value.
type Base struct {
	id   ComponentID
	desc *descriptor

	// holder stores the component; node is set only while attached.
	holder *Node
	node   *Node
	scene  *Scene

	ready bool
	spent bool

	// bindings is indexed by slot: bindings[i] is the live binding of slot i or nil.
	bindings   []*Binding
	bound      Bitmask
	dependents []*Binding

	listeners      []readinessListener
	nextListenerID uint64
}

func (b *Base) base() *Base { return b }

// ID returns the component id, or zero if the component was never added to a node.
func (b *Base) ID() ComponentID { return b.id }

// Node returns the node the component is attached to, or nil.
func (b *Base) Node() *Node { return b.node }

// IsAttached reports whether the component is attached to a node inside a scene.
func (b *Base) IsAttached() bool { return b.node != nil }

// IsReady reports whether the component is attached and all required slots are bound.
func (b *Base) IsReady() bool { return b.ready }

// Bindings returns the live bindings where this component is the source, in slot order.
func (b *Base) Bindings() []*Binding {
	out := make([]*Binding, 0, len(b.bindings))
	for _, bd := range b.bindings {
		if bd != nil {
			out = append(out, bd)
		}
	}
	return out
}

// Dependents returns the live bindings where this component is the target.
func (b *Base) Dependents() []*Binding {
	return slices.Clone(b.dependents)
}

// UnboundSlots names the required slots that currently have no sibling. An empty
// result on an attached component means it is ready.
func (b *Base) UnboundSlots() []string {
	if b.desc == nil {
		return nil
	}
	missing := b.desc.required.AndNot(b.bound)
	var out []string
	for i, s := range b.desc.slots {
		if missing.Has(i) {
			out = append(out, s.name)
		}
	}
	return out
}

// OnReadinessChanged subscribes fn to readiness flips. The returned func cancels the
// subscription and is safe to call more than once.
func (b *Base) OnReadinessChanged(fn ReadinessFunc) (cancel func()) {
	b.nextListenerID++
	id := b.nextListenerID
	b.listeners = append(slices.Clip(b.listeners), readinessListener{id: id, fn: fn})
	return func() {
		i := slices.IndexFunc(b.listeners, func(l readinessListener) bool { return l.id == id })
		if i >= 0 {
			b.listeners = slices.Delete(slices.Clone(b.listeners), i, i+1)
		}
	}
}

// identify assigns the id and descriptor on first contact with a node.
func identify(c Component) *Base {
	b := c.base()
	if b.id == 0 {
		b.id = newComponentID()
		b.desc = descriptorFor(reflect.TypeOf(c))
		b.bindings = make([]*Binding, len(b.desc.slots))
	}
	return b
}

// attach binds every slot that has an attached sibling on n and recomputes readiness.
func (b *Base) attach(self Component, n *Node) error {
	if b.node != nil {
		return ErrComponentAttached
	}
	b.node = n
	b.scene = n.scene

	for i, s := range b.desc.slots {
		if b.bindings[i] != nil {
			continue
		}
		tgt, ok := n.store.lookup(s.target)
		if !ok || tgt == self || tgt.base().node != n {
			continue
		}
		bind(self, i, tgt)
	}
	b.recompute(self)
	return nil
}

// siblingAdded fills unbound slots targeting the type of added.
func (b *Base) siblingAdded(self, added Component) {
	changed := false
	for _, i := range b.desc.byTarget[reflect.TypeOf(added)] {
		if b.bindings[i] == nil {
			bind(self, i, added)
			changed = true
		}
	}
	if changed {
		b.recompute(self)
	}
}

// detach tears down every binding the component takes part in, then clears the node.
func (b *Base) detach(self Component, n *Node) error {
	if b.node != n {
		return ErrNotOwner
	}

	for len(b.dependents) > 0 {
		bd := b.dependents[len(b.dependents)-1]
		unbind(bd)
		rebind(bd.source, bd.slot, self, n)
		bd.source.base().recompute(bd.source)
	}
	for _, bd := range b.bindings {
		if bd != nil {
			unbind(bd)
		}
	}

	b.node = nil
	b.recompute(self)
	b.scene = nil
	return nil
}

// rebind points slot i of src at another attached sibling of the slot's target type, if
// one was added to n while the old target was on its way out.
func rebind(src Component, i int, leaving Component, n *Node) {
	sb := src.base()
	if sb.node != n || sb.bindings[i] != nil {
		return
	}
	tgt, ok := n.store.lookup(sb.desc.slots[i].target)
	if !ok || tgt == leaving || tgt == src || tgt.base().node != n {
		return
	}
	bind(src, i, tgt)
}

// recompute derives readiness from slot occupancy and notifies on a flip.
func (b *Base) recompute(self Component) {
	ready := b.node != nil && b.desc.satisfied(b.bound)
	if ready == b.ready {
		return
	}
	b.ready = ready

	for _, l := range b.listeners {
		l.fn(self, ready)
	}
	if b.scene != nil {
		b.scene.publishReadiness(self, ready)
	}
}
