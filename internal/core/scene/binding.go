package scene

import "slices"

// Binding is one resolved dependency edge: slot Slot of Source is wired to Target.
// A binding lives only while both ends are attached to the same node.
type Binding struct {
	source Component
	target Component
	slot   int
}

func (b *Binding) Source() Component { return b.source }
func (b *Binding) Target() Component { return b.target }
func (b *Binding) Slot() int         { return b.slot }

// SlotName is the declared name of the bound slot.
func (b *Binding) SlotName() string {
	return b.source.base().desc.slots[b.slot].name
}

// Required reports whether the bound slot gates readiness.
func (b *Binding) Required() bool {
	return b.source.base().desc.slots[b.slot].required
}

func bind(src Component, i int, tgt Component) *Binding {
	sb := src.base()
	bd := &Binding{source: src, target: tgt, slot: i}

	sb.desc.slots[i].bind(src, tgt)
	sb.bindings[i] = bd
	sb.bound.Set(i)

	tb := tgt.base()
	tb.dependents = append(tb.dependents, bd)
	return bd
}

// unbind clears the slot on the source and drops the edge from the target. It does not
// recompute readiness; callers do that once per affected source.
func unbind(bd *Binding) {
	sb := bd.source.base()
	if sb.bindings[bd.slot] != bd {
		return
	}
	sb.desc.slots[bd.slot].clear(bd.source)
	sb.bindings[bd.slot] = nil
	sb.bound.Clear(bd.slot)

	tb := bd.target.base()
	if i := slices.Index(tb.dependents, bd); i >= 0 {
		last := len(tb.dependents) - 1
		tb.dependents[i] = tb.dependents[last]
		tb.dependents[last] = nil
		tb.dependents = tb.dependents[:last]
	}
}
