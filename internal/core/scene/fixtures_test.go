package scene

// Component and processor types shared by the package tests.

type recorder struct {
	attached []Component
	detached []Component
	updated  []Component
}

func newRecorder() *recorder { return &recorder{} }

func (r *recorder) OnMemberAttached(c Component) { r.attached = append(r.attached, c) }
func (r *recorder) OnMemberDetached(c Component) { r.detached = append(r.detached, c) }
func (r *recorder) Update(c Component)           { r.updated = append(r.updated, c) }

func (r *recorder) reset() {
	r.attached, r.detached, r.updated = nil, nil, nil
}

// auditor is a second processor type, used to check registration order.
type auditor struct {
	recorder
}

func newAuditor() *auditor { return &auditor{} }

type plain struct {
	Base
}

type xComp struct {
	Base
}

type yComp struct {
	Base
}

type zComp struct {
	Base
}

type bComp struct {
	Base
	X *xComp
}

// wide requires X, optionally takes Y.
type wide struct {
	Base
	X *xComp
	Y *yComp
}

// pair needs both X and Y.
type pair struct {
	Base
	X *xComp
	Y *yComp
}

type drawable struct {
	Base
	X *xComp
}

type derived struct {
	drawable
	Z *zComp
}

// spawner adds a Y sibling from its attach hook.
type spawner struct {
	Base
	spawned *yComp
}

func (s *spawner) OnAttach(n *Node) {
	if s.spawned == nil {
		s.spawned = &yComp{}
		_ = n.Add(s.spawned)
	}
}

// watcher records siblings added after it.
type watcher struct {
	Base
	seen []Component
}

func (w *watcher) OnSiblingAdded(c Component) { w.seen = append(w.seen, c) }

// brokenProc has a factory that returns nil.
type brokenProc struct {
	recorder
}

type orphan struct {
	Base
}

// ticker is processed by a ProcessorFuncs that tests usually register eagerly.
type ticker struct {
	Base
}

type tickerProc = ProcessorFuncs[ticker, *ticker]

// relay runs onDetach from its own Detacher hook.
type relay struct {
	Base
	onDetach func(*Node)
}

func (r *relay) OnDetach(n *Node) {
	if r.onDetach != nil {
		r.onDetach(n)
	}
}

type relayUser struct {
	Base
	R *relay
}

func init() {
	Declare[plain](ProcessedBy(newRecorder))
	Declare[bComp](
		Require("x", func(b *bComp) **xComp { return &b.X }),
		ProcessedBy(newRecorder),
	)
	Declare[wide](
		Require("x", func(w *wide) **xComp { return &w.X }),
		Optional("y", func(w *wide) **yComp { return &w.Y }),
		ProcessedBy(newRecorder),
		ProcessedBy(newAuditor),
	)
	Declare[pair](
		Require("x", func(p *pair) **xComp { return &p.X }),
		Require("y", func(p *pair) **yComp { return &p.Y }),
		ProcessedBy(newRecorder),
	)
	Declare[drawable](
		Require("x", func(d *drawable) **xComp { return &d.X }),
		ProcessedBy(newRecorder),
	)
	Declare[derived](
		Inherit(func(d *derived) *drawable { return &d.drawable }),
		Optional("z", func(d *derived) **zComp { return &d.Z }),
		ProcessedBy(newAuditor),
	)
	Declare[orphan](ProcessedBy(func() *brokenProc { return nil }))
	Declare[ticker](ProcessedBy(func() *tickerProc { return &tickerProc{} }))
	Declare[relayUser](
		Require("relay", func(u *relayUser) **relay { return &u.R }),
		ProcessedBy(newRecorder),
	)
}
