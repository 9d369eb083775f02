package scene

import (
	"fmt"
	"slices"

	"github.com/zeusync/scenegraph/internal/core/observability/log"
)

// DefaultMaxDrainPasses bounds how many times one Drain re-takes the mailbox while
// membership callbacks keep queuing new transitions.
const DefaultMaxDrainPasses = 16

type managedComponent struct {
	cancel   func()
	interest []*processorEntry
}

// Manager is the per-scene scheduler. Readiness flips of managed components are only
// queued; processor membership changes happen in Drain, and processors run in update.
type Manager struct {
	scene *Scene
	log   log.Log

	queue    mailbox
	registry processorRegistry
	managed  map[Component]*managedComponent
	released []Component

	maxPasses int
	draining  bool
}

func newManager(s *Scene, logger log.Log, maxPasses int) *Manager {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxDrainPasses
	}
	return &Manager{
		scene:     s,
		log:       logger,
		queue:     newMailbox(),
		registry:  newProcessorRegistry(),
		managed:   make(map[Component]*managedComponent),
		maxPasses: maxPasses,
	}
}

// manage subscribes to c's readiness before c attaches, so the attach flip is captured.
func (m *Manager) manage(c Component) {
	if _, ok := m.managed[c]; ok {
		return
	}
	b := c.base()
	interest, err := m.registry.interested(b.desc)
	if err != nil {
		m.log.Error("processor association failed", logComponent(c, err)...)
	}
	m.managed[c] = &managedComponent{
		interest: interest,
		cancel:   b.OnReadinessChanged(m.onReadinessChanged),
	}
}

func (m *Manager) onReadinessChanged(c Component, ready bool) {
	if c.base().scene != m.scene {
		return
	}
	kind := Detach
	if ready {
		kind = Attach
	}
	m.queue.post(kind, c)
}

// release is called after c detached. The subscription is dropped once no transition of
// c is outstanding.
func (m *Manager) release(c Component) {
	if _, ok := m.managed[c]; !ok {
		return
	}
	if _, queued := m.queue.pending(c); queued || m.draining {
		m.released = append(m.released, c)
		return
	}
	m.retire(c)
}

func (m *Manager) retire(c Component) {
	mc, ok := m.managed[c]
	if !ok {
		return
	}
	mc.cancel()
	delete(m.managed, c)
}

// Drain applies queued transitions in FIFO order, one coalesced transition per component.
// Transitions queued by membership callbacks are applied in further passes of the same
// call, up to the configured pass limit. It returns the number of transitions applied.
func (m *Manager) Drain() int {
	if m.draining {
		return 0
	}
	m.draining = true
	defer func() { m.draining = false }()

	applied := 0
	for pass := 0; m.queue.len() > 0; pass++ {
		if pass == m.maxPasses {
			m.log.Warn("drain pass limit reached, deferring transitions",
				log.Int("passes", pass),
				log.Int("pending", m.queue.len()),
			)
			break
		}
		for _, t := range m.queue.take() {
			m.apply(t)
			applied++
		}
	}
	m.sweep()
	return applied
}

func (m *Manager) apply(t Transition) {
	c := t.Component
	mc, ok := m.managed[c]
	if !ok {
		panic(fmt.Errorf("%w: component %d (%s)", ErrUnknownComponent, c.base().id, t.Kind))
	}

	switch t.Kind {
	case Attach:
		for _, e := range mc.interest {
			if e.add(c) {
				e.proc.OnMemberAttached(c)
			}
		}
	case Detach:
		for _, e := range mc.interest {
			if e.remove(c) {
				e.proc.OnMemberDetached(c)
			}
		}
		if c.base().scene != m.scene {
			m.retire(c)
		}
	}
	m.log.Debug("transition applied",
		log.String("kind", t.Kind.String()),
		log.Uint64("component", uint64(c.base().id)),
		log.Type("type", c.base().desc.typ),
	)
}

// sweep retires released components that left the scene and have nothing queued.
func (m *Manager) sweep() {
	if len(m.released) == 0 {
		return
	}
	keep := m.released[:0]
	for _, c := range m.released {
		if _, ok := m.managed[c]; !ok {
			continue
		}
		_, queued := m.queue.pending(c)
		switch {
		case queued:
			keep = append(keep, c)
		case c.base().scene != m.scene:
			m.retire(c)
		}
	}
	clear(m.released[len(keep):])
	m.released = keep
}

// update runs every processor, in registration order, once per current member.
// Processors registered while updating first run on the next call. Members that are no
// longer ready are skipped; their Detach is still queued behind the pass limit or was
// queued by an earlier Update in this frame.
func (m *Manager) update() {
	for _, e := range slices.Clone(m.registry.entries) {
		for _, c := range e.snapshot() {
			if !c.base().ready {
				continue
			}
			e.proc.Update(c)
		}
	}
}

// Pending returns the transitions a Drain would apply now, in order.
func (m *Manager) Pending() []Transition {
	return m.queue.snapshot()
}

// Managed is the number of components the manager is subscribed to.
func (m *Manager) Managed() int { return len(m.managed) }

// Processors returns the registered processors in registration order.
func (m *Manager) Processors() []Processor {
	return m.registry.processors()
}

// Members returns a copy of p's membership list, or nil if p is not registered.
func (m *Manager) Members(p Processor) []Component {
	for _, e := range m.registry.entries {
		if e.proc == p {
			return e.snapshot()
		}
	}
	return nil
}

// IsMember reports whether c is currently in p's membership list.
func (m *Manager) IsMember(p Processor, c Component) bool {
	for _, e := range m.registry.entries {
		if e.proc == p {
			return e.has(c)
		}
	}
	return false
}
