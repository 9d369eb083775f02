package scene

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
)

func pendingFor(m *Manager, c Component) []Transition {
	var out []Transition
	for _, tr := range m.Pending() {
		if tr.Component == c {
			out = append(out, tr)
		}
	}
	return out
}

func mustRecorder(t *testing.T, s *Scene) *recorder {
	t.Helper()
	rec, ok := ProcessorOf[*recorder](s)
	require.True(t, ok, "recorder not registered")
	return rec
}

func countFlips(c Component) *[]bool {
	var flips []bool
	c.base().OnReadinessChanged(func(_ Component, ready bool) {
		flips = append(flips, ready)
	})
	return &flips
}

// TestScene_NoSlotsReadyOnAttach tests that a slot-less component is ready once its node attaches
func TestScene_NoSlotsReadyOnAttach(t *testing.T) {
	n := NewNode("n")
	a := &plain{}
	require.NoError(t, n.Add(a))
	assert.False(t, a.IsReady())

	s := newTestScene(t)
	require.NoError(t, s.SetRoot(n))

	assert.True(t, a.IsReady())
	assert.Empty(t, a.Bindings())
	assert.Empty(t, a.UnboundSlots())
	assert.Equal(t, []Transition{{Kind: Attach, Component: a}}, s.Manager().Pending())
}

// TestScene_DependentFirst tests adding the dependent before its dependency
func TestScene_DependentFirst(t *testing.T) {
	s, n := rootedNode(t)
	b := &bComp{}
	flips := countFlips(b)

	require.NoError(t, n.Add(b))
	assert.False(t, b.IsReady())
	assert.Equal(t, []string{"x"}, b.UnboundSlots())
	assert.Empty(t, pendingFor(s.Manager(), b))

	x := &xComp{}
	require.NoError(t, n.Add(x))

	assert.True(t, b.IsReady())
	assert.Equal(t, []bool{true}, *flips)
	require.Len(t, b.Bindings(), 1)
	assert.Same(t, x, b.X)
	assert.Equal(t, []Transition{{Kind: Attach, Component: b}}, pendingFor(s.Manager(), b))
}

// TestScene_DependencyFirst tests adding the dependency before the dependent
func TestScene_DependencyFirst(t *testing.T) {
	s, n := rootedNode(t)
	x := &xComp{}
	require.NoError(t, n.Add(x))

	b := &bComp{}
	flips := countFlips(b)
	require.NoError(t, n.Add(b))

	assert.True(t, b.IsReady())
	assert.Equal(t, []bool{true}, *flips)
	require.Len(t, b.Bindings(), 1)
	bd := b.Bindings()[0]
	assert.Same(t, x, bd.Target())
	assert.Equal(t, "x", bd.SlotName())
	assert.True(t, bd.Required())
	assert.Equal(t, []*Binding{bd}, x.Dependents())
	assert.Equal(t, []Transition{{Kind: Attach, Component: b}}, pendingFor(s.Manager(), b))
}

// TestScene_RemoveDependency tests teardown when the target leaves
func TestScene_RemoveDependency(t *testing.T) {
	s, n := rootedNode(t)
	x, b := &xComp{}, &bComp{}
	require.NoError(t, n.Add(x))
	require.NoError(t, n.Add(b))
	require.NoError(t, s.Update())
	rec := mustRecorder(t, s)
	require.Equal(t, []Component{b}, s.Members(rec))
	flips := countFlips(b)

	require.True(t, n.Remove(x))

	assert.False(t, b.IsReady())
	assert.Nil(t, b.X)
	assert.Empty(t, b.Bindings())
	assert.Empty(t, x.Dependents())
	assert.Equal(t, []bool{false}, *flips)
	assert.Equal(t, []Transition{{Kind: Detach, Component: b}}, pendingFor(s.Manager(), b))

	rec.reset()
	require.NoError(t, s.Update())
	assert.Empty(t, s.Members(rec))
	assert.Equal(t, []Component{b}, rec.detached)
	assert.Empty(t, rec.updated)
}

// TestScene_AddRemoveWithinTick tests that a component added and removed before a drain is never seen
func TestScene_AddRemoveWithinTick(t *testing.T) {
	s, n := rootedNode(t)
	x := &xComp{}
	require.NoError(t, n.Add(x))
	require.NoError(t, s.Update())

	b := &bComp{}
	require.NoError(t, n.Add(b))
	require.True(t, b.IsReady())
	require.True(t, n.Remove(b))

	require.NoError(t, s.Update())
	rec := mustRecorder(t, s)
	assert.Empty(t, s.Members(rec))
	assert.NotContains(t, rec.attached, Component(b))
	assert.NotContains(t, rec.detached, Component(b))
	assert.NotContains(t, rec.updated, Component(b))
	assert.Equal(t, 1, s.Manager().Managed(), "only x stays managed")
}

// TestScene_DetachThenAttachCoalesces tests that a member losing and regaining readiness is untouched
func TestScene_DetachThenAttachCoalesces(t *testing.T) {
	s, n := rootedNode(t)
	x, b := &xComp{}, &bComp{}
	require.NoError(t, n.Add(x))
	require.NoError(t, n.Add(b))
	require.NoError(t, s.Update())
	rec := mustRecorder(t, s)
	rec.reset()

	require.True(t, n.Remove(x))
	x2 := &xComp{}
	require.NoError(t, n.Add(x2))
	assert.Equal(t, []Transition{{Kind: Attach, Component: b}}, pendingFor(s.Manager(), b))

	require.NoError(t, s.Update())
	assert.Empty(t, rec.attached)
	assert.Empty(t, rec.detached)
	assert.Equal(t, []Component{b}, s.Members(rec))
	assert.Same(t, x2, b.X)
}

// TestScene_DrainIdempotent tests that a second drain with nothing queued changes nothing
func TestScene_DrainIdempotent(t *testing.T) {
	s, n := rootedNode(t)
	require.NoError(t, n.Add(&xComp{}))
	require.NoError(t, n.Add(&bComp{}))
	require.NoError(t, n.Add(&plain{}))

	m := s.Manager()
	assert.Equal(t, 3, m.Drain())
	rec := mustRecorder(t, s)
	members := s.Members(rec)
	attached := len(rec.attached)

	assert.Zero(t, m.Drain())
	assert.ElementsMatch(t, members, s.Members(rec))
	assert.Len(t, rec.attached, attached)
	assert.Empty(t, rec.detached)
}

// TestScene_RoundTrip tests that Add, Remove, Add leaves the same node and membership state
func TestScene_RoundTrip(t *testing.T) {
	s, n := rootedNode(t)
	x := &xComp{}
	require.NoError(t, n.Add(x))
	require.NoError(t, n.Add(&bComp{}))
	require.NoError(t, s.Update())
	rec := mustRecorder(t, s)

	typesOf := func() []reflect.Type {
		var out []reflect.Type
		for _, c := range n.Components() {
			out = append(out, reflect.TypeOf(c))
		}
		return out
	}
	beforeTypes := typesOf()
	beforeMembers := len(s.Members(rec))

	p := &plain{}
	require.NoError(t, n.Add(p))
	require.True(t, n.Remove(p))
	require.NoError(t, s.Update())

	assert.ElementsMatch(t, beforeTypes, typesOf())
	assert.Len(t, s.Members(rec), beforeMembers)
	assert.NotContains(t, s.Members(rec), Component(p))
}

// TestScene_UpdateOrder tests that updates follow drains and hit only members
func TestScene_UpdateOrder(t *testing.T) {
	s, n := rootedNode(t)
	x, b, p := &xComp{}, &bComp{}, &plain{}
	require.NoError(t, n.Add(b))
	require.NoError(t, n.Add(p))
	require.NoError(t, s.Update())
	rec := mustRecorder(t, s)
	assert.Equal(t, []Component{p}, rec.updated)

	rec.reset()
	require.NoError(t, n.Add(x))
	require.NoError(t, s.Update())
	assert.Equal(t, []Component{b}, rec.attached)
	assert.ElementsMatch(t, []Component{b, p}, rec.updated)
	assert.Equal(t, uint64(2), s.Frame())
}

// TestScene_ProcessorOrder tests eager registration ahead of lazily created processors
func TestScene_ProcessorOrder(t *testing.T) {
	s := newTestScene(t)
	aud := newAuditor()
	require.NoError(t, s.AddProcessor(aud))
	require.ErrorIs(t, s.AddProcessor(newAuditor()), ErrProcessorRegistered)
	require.ErrorIs(t, s.AddProcessor(nil), ErrProcessorNil)
	var nilRec *recorder
	require.ErrorIs(t, s.AddProcessor(nilRec), ErrProcessorNil)

	n := s.NewNode("root")
	require.NoError(t, n.Add(&xComp{}))
	w := &wide{}
	require.NoError(t, n.Add(w))
	require.NoError(t, s.SetRoot(n))
	require.NoError(t, s.Update())

	rec := mustRecorder(t, s)
	assert.Equal(t, []Processor{aud, rec}, s.Processors())
	assert.Equal(t, []Component{w}, aud.attached)
	assert.Equal(t, []Component{w}, rec.attached)
}

// TestScene_LazyProcessor tests that a processor appears when an associated component first attaches
func TestScene_LazyProcessor(t *testing.T) {
	s, n := rootedNode(t)
	assert.Empty(t, s.Processors())

	require.NoError(t, n.Add(&xComp{}))
	assert.Empty(t, s.Processors())

	require.NoError(t, n.Add(&plain{}))
	require.Len(t, s.Processors(), 1)
	_, ok := ProcessorOf[*auditor](s)
	assert.False(t, ok)

	// a second associated type joins the same instance
	b := &bComp{}
	require.NoError(t, n.Add(b))
	require.NoError(t, s.Update())
	require.Len(t, s.Processors(), 1)
	rec, ok := ProcessorOf[*recorder](s)
	require.True(t, ok)
	assert.Len(t, s.Members(rec), 2)
	assert.True(t, s.Manager().IsMember(rec, b))
}

// TestScene_NilFactory tests that a broken processor factory leaves the component unprocessed
func TestScene_NilFactory(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s, n := rootedNode(t, WithLogger(log.FromZap(zap.New(core), log.LevelDebug)))

	o := &orphan{}
	require.NoError(t, n.Add(o))
	assert.True(t, o.IsReady())
	assert.Empty(t, s.Processors())
	require.NoError(t, s.Update())
	assert.Equal(t, 1, logs.FilterMessage("processor association failed").Len())
}

// TestScene_EagerFuncsProcessor tests that an eagerly added instance replaces the factory
func TestScene_EagerFuncsProcessor(t *testing.T) {
	s := newTestScene(t)
	var attached, ticked []*ticker
	proc := &tickerProc{
		Attached: func(tk *ticker) { attached = append(attached, tk) },
		Tick:     func(tk *ticker) { ticked = append(ticked, tk) },
	}
	require.NoError(t, s.AddProcessor(proc))

	n := s.NewNode("root")
	tk := &ticker{}
	require.NoError(t, n.Add(tk))
	require.NoError(t, s.SetRoot(n))
	require.NoError(t, s.Update())
	require.NoError(t, s.Update())

	got, ok := ProcessorOf[*tickerProc](s)
	require.True(t, ok)
	assert.Same(t, proc, got)
	assert.Equal(t, []*ticker{tk}, attached)
	assert.Equal(t, []*ticker{tk, tk}, ticked)
}

// TestScene_ReentrantUpdate tests that Update refuses to run inside itself
func TestScene_ReentrantUpdate(t *testing.T) {
	s := newTestScene(t)
	var inner error
	require.NoError(t, s.AddProcessor(&tickerProc{
		Tick: func(*ticker) { inner = s.Update() },
	}))
	n := s.NewNode("root")
	require.NoError(t, n.Add(&ticker{}))
	require.NoError(t, s.SetRoot(n))

	require.NoError(t, s.Update())
	assert.ErrorIs(t, inner, ErrReentrantUpdate)
	assert.Equal(t, uint64(1), s.Frame())
}

// TestScene_MutationFromUpdateIsDeferred tests that a processor detaching a member sees it next drain
func TestScene_MutationFromUpdateIsDeferred(t *testing.T) {
	s := newTestScene(t)
	n := s.NewNode("root")
	child := s.NewNode("child")
	tk := &ticker{}
	require.NoError(t, child.Add(tk))
	require.NoError(t, n.AddChild(child))

	var detached int
	proc := &tickerProc{
		Detached: func(*ticker) { detached++ },
		Tick:     func(*ticker) { n.RemoveChild(child) },
	}
	require.NoError(t, s.AddProcessor(proc))
	require.NoError(t, s.SetRoot(n))

	require.NoError(t, s.Update())
	assert.Zero(t, detached)
	assert.Equal(t, []Component{tk}, s.Members(proc))

	require.NoError(t, s.Update())
	assert.Equal(t, 1, detached)
	assert.Empty(t, s.Members(proc))
	assert.Zero(t, s.Manager().Managed())
}

// TestScene_DrainPassLimit tests that callbacks queuing forever are cut off with a warning
func TestScene_DrainPassLimit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := newTestScene(t, WithMaxDrainPasses(3), WithLogger(log.FromZap(zap.New(core), log.LevelDebug)))
	root := s.NewNode("root")
	require.NoError(t, s.AddProcessor(&tickerProc{
		Attached: func(*ticker) {
			child := s.NewNode("spawned")
			require.NoError(t, child.Add(&ticker{}))
			require.NoError(t, root.AddChild(child))
		},
	}))
	require.NoError(t, root.Add(&ticker{}))
	require.NoError(t, s.SetRoot(root))

	assert.Equal(t, 3, s.Manager().Drain())
	assert.Len(t, s.Manager().Pending(), 1)
	assert.Equal(t, 1, logs.FilterMessage("drain pass limit reached, deferring transitions").Len())
}

// TestScene_DeferredDetachSkipsUpdate tests that a member whose Detach is held back by
// the pass limit is not updated
func TestScene_DeferredDetachSkipsUpdate(t *testing.T) {
	s := newTestScene(t, WithMaxDrainPasses(1))
	root := s.NewNode("root")
	first, second := &ticker{}, &ticker{}

	var ticked []*ticker
	proc := &tickerProc{
		Tick: func(c *ticker) { ticked = append(ticked, c) },
	}
	require.NoError(t, s.AddProcessor(proc))
	require.NoError(t, root.Add(first))
	require.NoError(t, s.SetRoot(root))
	require.NoError(t, s.Update())
	require.Equal(t, []*ticker{first}, ticked)

	proc.Attached = func(c *ticker) {
		if c == second {
			root.Remove(first)
		}
	}
	require.NoError(t, root.Add(second))
	ticked = nil
	require.NoError(t, s.Update())

	assert.True(t, s.Manager().IsMember(proc, first), "detach still queued")
	assert.Len(t, s.Manager().Pending(), 1)
	assert.Equal(t, []*ticker{second}, ticked)

	ticked = nil
	require.NoError(t, s.Update())
	assert.False(t, s.Manager().IsMember(proc, first))
	assert.Equal(t, []*ticker{second}, ticked)
}

// TestScene_UnknownComponentPanics tests the scheduler invariant
func TestScene_UnknownComponentPanics(t *testing.T) {
	s := newTestScene(t)
	m := s.Manager()
	m.queue.post(Attach, &xComp{})

	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok, "expected error panic, got %v", r)
		assert.ErrorIs(t, err, ErrUnknownComponent)
	}()
	m.Drain()
	t.Fatal("drain did not panic")
}

// TestScene_MoveBetweenScenes tests that a subtree moved to another scene stops feeding the first
func TestScene_MoveBetweenScenes(t *testing.T) {
	s1, r1 := rootedNode(t)
	s2, r2 := rootedNode(t)
	child := NewNode("child")
	p := &plain{}
	require.NoError(t, child.Add(p))
	require.NoError(t, r1.AddChild(child))
	require.NoError(t, s1.Update())
	rec1 := mustRecorder(t, s1)
	require.Equal(t, []Component{p}, s1.Members(rec1))

	require.True(t, r1.RemoveChild(child))
	require.NoError(t, r2.AddChild(child))
	require.NoError(t, s1.Update())
	require.NoError(t, s2.Update())

	rec2 := mustRecorder(t, s2)
	assert.Empty(t, s1.Members(rec1))
	assert.Equal(t, []Component{p}, s2.Members(rec2))
	assert.Zero(t, s1.Manager().Managed())
	assert.Equal(t, 1, s2.Manager().Managed())
}

// TestScene_Events tests bus notifications for one attach sequence
func TestScene_Events(t *testing.T) {
	b := bus.New()
	var got []string
	record := func(e bus.Event) error {
		got = append(got, e.Type())
		return nil
	}
	for _, typ := range []string{EventNodeAttached, EventNodeDetached, EventComponentAdded, EventComponentRemoved, EventReadinessChanged} {
		_, err := b.Subscribe(typ, record)
		require.NoError(t, err)
	}
	var ready []ReadinessEvent
	_, err := b.Subscribe(EventReadinessChanged, func(e bus.Event) error {
		ready = append(ready, e.Data().(ReadinessEvent))
		return nil
	})
	require.NoError(t, err)

	s := newTestScene(t, WithBus(b))
	n := s.NewNode("root")
	bc := &bComp{}
	require.NoError(t, n.Add(bc))
	require.NoError(t, s.SetRoot(n))
	require.NoError(t, n.Add(&xComp{}))
	s.ClearRoot()

	assert.Equal(t, []string{
		EventComponentAdded, // b, not ready yet
		EventNodeAttached,
		EventReadinessChanged, // x
		EventReadinessChanged, // b bound to x
		EventComponentAdded,   // x
		EventReadinessChanged, // b detaching
		EventComponentRemoved,
		EventReadinessChanged, // x detaching
		EventComponentRemoved,
		EventNodeDetached,
	}, got)
	require.Len(t, ready, 4)
	assert.Equal(t, bc.ID(), ready[1].ID)
	assert.True(t, ready[1].Ready)
	assert.False(t, ready[2].Ready)
}

// TestScene_Snapshot tests the diagnostic view
func TestScene_Snapshot(t *testing.T) {
	s, n := rootedNode(t)
	child := NewNode("child")
	require.NoError(t, n.AddChild(child))
	require.NoError(t, child.Add(&pair{}))
	require.NoError(t, child.Add(&xComp{}))
	require.NoError(t, n.Add(&plain{}))
	require.NoError(t, s.Update())

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Nodes)
	assert.Equal(t, 3, snap.Components)
	assert.Equal(t, 2, snap.Ready)
	assert.Zero(t, snap.Pending)
	require.Len(t, snap.Waiting, 1)
	assert.Equal(t, []string{"y"}, snap.Waiting[0].Unbound)
	require.Len(t, snap.Processors, 1)
	assert.Equal(t, 1, snap.Processors[0].Members)
	assert.Equal(t, KeyOf(reflect.TypeOf(&recorder{})), snap.Processors[0].Key)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"key":"`+snap.Processors[0].Key.String()+`"`)
}
