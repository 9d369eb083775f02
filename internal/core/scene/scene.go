package scene

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
)

// Scene owns the root of a node tree, the notification bus and the Manager that feeds
// processors. The host calls Update once per frame.
type Scene struct {
	id     uuid.UUID
	name   string
	source string

	log     log.Log
	bus     bus.EventBus
	manager *Manager

	root         *Node
	frame        uint64
	updating     bool
	nodeCapacity int
}

// SceneOption configures a Scene.
type SceneOption func(*sceneOptions)

type sceneOptions struct {
	name         string
	logger       log.Log
	bus          bus.EventBus
	maxPasses    int
	nodeCapacity int
}

func WithName(name string) SceneOption {
	return func(o *sceneOptions) { o.name = name }
}

func WithLogger(l log.Log) SceneOption {
	return func(o *sceneOptions) { o.logger = l }
}

// WithBus publishes scene notifications on b instead of a private bus.
func WithBus(b bus.EventBus) SceneOption {
	return func(o *sceneOptions) { o.bus = b }
}

// WithMaxDrainPasses sets the pass limit of a single drain.
func WithMaxDrainPasses(n int) SceneOption {
	return func(o *sceneOptions) { o.maxPasses = n }
}

// WithNodeCapacity sets the initial component capacity of nodes made by Scene.NewNode.
func WithNodeCapacity(n int) SceneOption {
	return func(o *sceneOptions) { o.nodeCapacity = n }
}

// New creates an empty scene.
func New(opts ...SceneOption) *Scene {
	o := sceneOptions{
		name:         "scene",
		maxPasses:    DefaultMaxDrainPasses,
		nodeCapacity: DefaultNodeCapacity,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Provide()
	}
	if o.bus == nil {
		o.bus = bus.New()
	}

	s := &Scene{
		id:           uuid.New(),
		name:         o.name,
		bus:          o.bus,
		nodeCapacity: o.nodeCapacity,
	}
	s.source = "scene/" + s.name
	s.log = o.logger.With(log.String("scene", s.name), log.String("scene_id", s.id.String()))
	s.manager = newManager(s, s.log, o.maxPasses)
	return s
}

func (s *Scene) ID() uuid.UUID     { return s.id }
func (s *Scene) Name() string      { return s.name }
func (s *Scene) Bus() bus.EventBus { return s.bus }
func (s *Scene) Manager() *Manager { return s.manager }
func (s *Scene) Root() *Node       { return s.root }
func (s *Scene) Frame() uint64     { return s.frame }

// NewNode creates a detached node sized by the scene's node capacity.
func (s *Scene) NewNode(name string) *Node {
	return NewNodeWithCapacity(name, s.nodeCapacity)
}

// SetRoot makes n the scene root, replacing and detaching any previous root, and
// attaches n's subtree.
func (s *Scene) SetRoot(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if n.destroyed {
		return fmt.Errorf("set root %s: %w", n, ErrNodeDestroyed)
	}
	if n.root == s {
		return nil
	}
	if n.parent != nil || n.root != nil {
		return fmt.Errorf("set root %s: %w", n, ErrNodeAttached)
	}
	s.ClearRoot()

	s.root = n
	n.root = s
	n.attach(s)
	s.log.Debug("root set", log.String("node", n.String()))
	return nil
}

// ClearRoot detaches the current root and returns it, or nil if there was none.
func (s *Scene) ClearRoot() *Node {
	n := s.root
	if n == nil {
		return nil
	}
	s.root = nil
	n.root = nil
	if n.scene == s && !n.detaching {
		n.detach()
	}
	return n
}

// AddProcessor registers p ahead of any lazily created processor that comes later.
// Components declaring an association with p's type use p instead of a factory-built
// instance.
func (s *Scene) AddProcessor(p Processor) error {
	if _, err := s.manager.registry.register(p); err != nil {
		return err
	}
	s.log.Debug("processor registered", log.Type("processor", reflect.TypeOf(p)))
	return nil
}

// Processors returns the registered processors in run order.
func (s *Scene) Processors() []Processor {
	return s.manager.Processors()
}

// ProcessorOf returns the registered processor of type P.
func ProcessorOf[P Processor](s *Scene) (P, bool) {
	e, ok := s.manager.registry.lookup(reflect.TypeFor[P]())
	if !ok {
		var zero P
		return zero, false
	}
	return e.proc.(P), true
}

// Members returns a copy of p's membership list.
func (s *Scene) Members(p Processor) []Component {
	return s.manager.Members(p)
}

// Update is the per-frame entry point: it drains queued transitions into processor
// membership, then runs every processor over its members. Calling it from inside a
// processor or hook returns ErrReentrantUpdate.
func (s *Scene) Update() error {
	if s.updating {
		return ErrReentrantUpdate
	}
	s.updating = true
	defer func() { s.updating = false }()

	s.frame++
	s.manager.Drain()
	s.manager.update()
	return nil
}
