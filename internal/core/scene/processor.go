package scene

import (
	"fmt"
	"reflect"
	"slices"
)

// Processor is a per-type handler run over the ready members it is interested in.
// Membership changes are applied by the Manager during a drain; Update runs once per
// member per Scene.Update. A processor that attaches or detaches nodes from Update sees
// the effect on the next drain.
type Processor interface {
	OnMemberAttached(c Component)
	OnMemberDetached(c Component)
	Update(c Component)
}

// ProcessorFuncs adapts typed callbacks to Processor. Nil callbacks are skipped.
// Members of another type are ignored.
type ProcessorFuncs[T any, PT interface {
	*T
	Component
}] struct {
	Attached func(PT)
	Detached func(PT)
	Tick     func(PT)
}

func (p *ProcessorFuncs[T, PT]) OnMemberAttached(c Component) {
	if v, ok := c.(PT); ok && p.Attached != nil {
		p.Attached(v)
	}
}

func (p *ProcessorFuncs[T, PT]) OnMemberDetached(c Component) {
	if v, ok := c.(PT); ok && p.Detached != nil {
		p.Detached(v)
	}
}

func (p *ProcessorFuncs[T, PT]) Update(c Component) {
	if v, ok := c.(PT); ok && p.Tick != nil {
		p.Tick(v)
	}
}

// processorEntry is one registered processor and its membership list.
type processorEntry struct {
	typ     reflect.Type
	key     TypeKey
	proc    Processor
	members []Component
	index   map[Component]int
}

func newProcessorEntry(p Processor) *processorEntry {
	t := reflect.TypeOf(p)
	return &processorEntry{
		typ:   t,
		key:   KeyOf(t),
		proc:  p,
		index: make(map[Component]int),
	}
}

// add reports whether c was not yet a member.
func (e *processorEntry) add(c Component) bool {
	if _, ok := e.index[c]; ok {
		return false
	}
	e.index[c] = len(e.members)
	e.members = append(e.members, c)
	return true
}

// remove swap-removes c. It reports whether c was a member.
func (e *processorEntry) remove(c Component) bool {
	i, ok := e.index[c]
	if !ok {
		return false
	}
	last := len(e.members) - 1
	if i != last {
		moved := e.members[last]
		e.members[i] = moved
		e.index[moved] = i
	}
	e.members[last] = nil
	e.members = e.members[:last]
	delete(e.index, c)
	return true
}

func (e *processorEntry) has(c Component) bool {
	_, ok := e.index[c]
	return ok
}

// processorRegistry holds the processors of one scene in registration order plus the
// component type -> interested processors cache. Both only grow.
type processorRegistry struct {
	entries  []*processorEntry
	byType   map[reflect.Type]*processorEntry
	interest map[reflect.Type][]*processorEntry
}

func newProcessorRegistry() processorRegistry {
	return processorRegistry{
		byType:   make(map[reflect.Type]*processorEntry),
		interest: make(map[reflect.Type][]*processorEntry),
	}
}

func (r *processorRegistry) register(p Processor) (*processorEntry, error) {
	if isNilProcessor(p) {
		return nil, ErrProcessorNil
	}
	t := reflect.TypeOf(p)
	if _, ok := r.byType[t]; ok {
		return nil, fmt.Errorf("register %s: %w", TypeName(t), ErrProcessorRegistered)
	}
	e := newProcessorEntry(p)
	r.byType[t] = e
	r.entries = append(r.entries, e)
	return e, nil
}

// interested returns the processors associated with the component type described by d,
// creating any that are not registered yet from their declared factories.
func (r *processorRegistry) interested(d *descriptor) ([]*processorEntry, error) {
	if es, ok := r.interest[d.typ]; ok {
		return es, nil
	}
	es := make([]*processorEntry, 0, len(d.processors))
	for _, pd := range d.processors {
		e, ok := r.byType[pd.typ]
		if !ok {
			p := pd.factory()
			if isNilProcessor(p) {
				return nil, fmt.Errorf("factory for %s: %w", TypeName(pd.typ), ErrProcessorNil)
			}
			var err error
			if e, err = r.register(p); err != nil {
				return nil, err
			}
		}
		es = append(es, e)
	}
	r.interest[d.typ] = es
	return es, nil
}

func isNilProcessor(p Processor) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func (r *processorRegistry) lookup(t reflect.Type) (*processorEntry, bool) {
	e, ok := r.byType[t]
	return e, ok
}

func (r *processorRegistry) processors() []Processor {
	out := make([]Processor, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.proc
	}
	return out
}

func (e *processorEntry) snapshot() []Component {
	return slices.Clone(e.members)
}
