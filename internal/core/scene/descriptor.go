package scene

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Option is one entry of a component type declaration.
type Option func(d *declaration)

// declaration is what Declare records. It is compiled into a descriptor the first time
// the component type is encountered.
type declaration struct {
	typ        reflect.Type
	slots      []slot
	inherits   []inheritDecl
	processors []processorDecl
}

type slot struct {
	name     string
	target   reflect.Type
	required bool
	bind     func(src, tgt Component)
	clear    func(src Component)
}

type inheritDecl struct {
	parent  reflect.Type
	project func(Component) Component
}

type processorDecl struct {
	typ     reflect.Type
	factory func() Processor
}

// descriptor is the compiled, immutable form of a declaration.
type descriptor struct {
	typ        reflect.Type
	key        TypeKey
	slots      []slot
	byTarget   map[reflect.Type][]int
	required   Bitmask
	processors []processorDecl
}

// satisfied is the readiness predicate: every required slot is bound.
func (d *descriptor) satisfied(bound Bitmask) bool {
	return bound.ContainsAll(d.required)
}

// descriptorRegistry is the process-wide, append-only descriptor table. Reads are
// lock-free; concurrent first use of a type compiles it exactly once.
type descriptorRegistry struct {
	declarations sync.Map // map[reflect.Type]*declaration
	descriptors  sync.Map // map[reflect.Type]*descriptor
	compiling    singleflight.Group
}

var globalDescriptors = &descriptorRegistry{}

// Declare records the dependency slots, inherited declarations and processor
// associations of component type T. It is meant to be called from init. Declaring a
// type twice, or after the type has already been used, panics.
func Declare[T any, PT interface {
	*T
	Component
}](opts ...Option) {
	t := reflect.TypeFor[PT]()
	if _, used := globalDescriptors.descriptors.Load(t); used {
		panic(fmt.Sprintf("scene: %s declared after first use", TypeName(t)))
	}

	d := &declaration{typ: t}
	for _, opt := range opts {
		opt(d)
	}
	if _, loaded := globalDescriptors.declarations.LoadOrStore(t, d); loaded {
		panic(fmt.Sprintf("scene: %s declared twice", TypeName(t)))
	}
}

// Require declares a required slot on S bound to the sibling of type *T. The accessor
// returns the address of the field that receives the sibling.
func Require[S, T any, PS interface {
	*S
	Component
}, PT interface {
	*T
	Component
}](name string, field func(*S) **T) Option {
	return slotOption[S, T, PS, PT](name, field, true)
}

// Optional declares a slot that is wired like a required one but never blocks
// readiness.
func Optional[S, T any, PS interface {
	*S
	Component
}, PT interface {
	*T
	Component
}](name string, field func(*S) **T) Option {
	return slotOption[S, T, PS, PT](name, field, false)
}

func slotOption[S, T any, PS interface {
	*S
	Component
}, PT interface {
	*T
	Component
}](name string, field func(*S) **T, required bool) Option {
	owner := reflect.TypeFor[PS]()
	s := slot{
		name:     name,
		target:   reflect.TypeFor[PT](),
		required: required,
		bind: func(src, tgt Component) {
			*field((*S)(src.(PS))) = (*T)(tgt.(PT))
		},
		clear: func(src Component) {
			*field((*S)(src.(PS))) = nil
		},
	}
	return func(d *declaration) {
		checkOwner(d, owner)
		d.slots = append(d.slots, s)
	}
}

// Inherit pulls in the declaration of the embedded component type P: its slots and
// processor associations become part of S's descriptor.
func Inherit[S, P any, PS interface {
	*S
	Component
}, PP interface {
	*P
	Component
}](field func(*S) *P) Option {
	owner := reflect.TypeFor[PS]()
	in := inheritDecl{
		parent: reflect.TypeFor[PP](),
		project: func(c Component) Component {
			return PP(field((*S)(c.(PS))))
		},
	}
	return func(d *declaration) {
		checkOwner(d, owner)
		d.inherits = append(d.inherits, in)
	}
}

// ProcessedBy associates the declared type with processor type P. The factory runs at
// most once per scene, when the first component of an associated type attaches.
// P must be the concrete processor type: processors are keyed by it, so an interface
// return type panics.
func ProcessedBy[P Processor](factory func() P) Option {
	typ := reflect.TypeFor[P]()
	if typ.Kind() == reflect.Interface {
		panic(fmt.Sprintf("scene: ProcessedBy factory must return a concrete processor type, not %s", typ))
	}
	pd := processorDecl{
		typ: typ,
		factory: func() Processor {
			return factory()
		},
	}
	return func(d *declaration) {
		d.processors = append(d.processors, pd)
	}
}

func checkOwner(d *declaration, owner reflect.Type) {
	if d.typ != owner {
		panic(fmt.Sprintf("scene: option for %s used in declaration of %s", TypeName(owner), TypeName(d.typ)))
	}
}

// descriptorFor returns the cached descriptor of t, compiling it on first use.
func descriptorFor(t reflect.Type) *descriptor {
	r := globalDescriptors
	if d, ok := r.descriptors.Load(t); ok {
		return d.(*descriptor)
	}
	v, _, _ := r.compiling.Do(qualifiedName(t)+"|"+t.String(), func() (any, error) {
		if d, ok := r.descriptors.Load(t); ok {
			return d, nil
		}
		actual, _ := r.descriptors.LoadOrStore(t, r.compile(t))
		return actual, nil
	})
	return v.(*descriptor)
}

func (r *descriptorRegistry) compile(t reflect.Type) *descriptor {
	d := &descriptor{
		typ:      t,
		key:      KeyOf(t),
		byTarget: make(map[reflect.Type][]int),
	}

	v, ok := r.declarations.Load(t)
	if ok {
		decl := v.(*declaration)
		// inherited slots come first so a derived type's own slots follow its base's
		for _, in := range decl.inherits {
			parent := descriptorFor(in.parent)
			for _, ps := range parent.slots {
				d.slots = append(d.slots, inheritSlot(ps, in.project))
			}
			d.processors = appendProcessors(d.processors, parent.processors...)
		}
		d.slots = append(d.slots, decl.slots...)
		d.processors = appendProcessors(d.processors, decl.processors...)
	}

	if len(d.slots) > MaxSlots {
		panic(fmt.Sprintf("scene: %s declares %d slots (max %d)", TypeName(t), len(d.slots), MaxSlots))
	}
	for i, s := range d.slots {
		d.byTarget[s.target] = append(d.byTarget[s.target], i)
		if s.required {
			d.required.Set(i)
		}
	}
	return d
}

func inheritSlot(s slot, project func(Component) Component) slot {
	bind, unbind := s.bind, s.clear
	s.bind = func(src, tgt Component) { bind(project(src), tgt) }
	s.clear = func(src Component) { unbind(project(src)) }
	return s
}

func appendProcessors(dst []processorDecl, src ...processorDecl) []processorDecl {
next:
	for _, p := range src {
		for _, q := range dst {
			if q.typ == p.typ {
				continue next
			}
		}
		dst = append(dst, p)
	}
	return dst
}

// SlotInfo describes one dependency slot of a component type.
type SlotInfo struct {
	Name     string
	Target   reflect.Type
	Required bool
}

// Descriptor is a read-only view of a compiled component type descriptor.
type Descriptor struct {
	Type       reflect.Type
	Key        TypeKey
	Slots      []SlotInfo
	Processors []reflect.Type
}

// Describe returns the descriptor of c's concrete type.
func Describe(c Component) Descriptor {
	return describe(descriptorFor(reflect.TypeOf(c)))
}

// DescriptorOf returns the descriptor of component type T.
func DescriptorOf[T any, PT interface {
	*T
	Component
}]() Descriptor {
	return describe(descriptorFor(reflect.TypeFor[PT]()))
}

func describe(d *descriptor) Descriptor {
	out := Descriptor{
		Type:       d.typ,
		Key:        d.key,
		Slots:      make([]SlotInfo, len(d.slots)),
		Processors: make([]reflect.Type, len(d.processors)),
	}
	for i, s := range d.slots {
		out.Slots[i] = SlotInfo{Name: s.name, Target: s.target, Required: s.required}
	}
	for i, p := range d.processors {
		out.Processors[i] = p.typ
	}
	return out
}
