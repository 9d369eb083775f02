package scene

import (
	"reflect"

	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
)

// Event types published on the scene bus. Delivery is synchronous and unbuffered.
const (
	EventNodeAttached     = "node.attached"
	EventNodeDetached     = "node.detached"
	EventComponentAdded   = "component.added"
	EventComponentRemoved = "component.removed"
	EventReadinessChanged = "component.readiness"
)

// NodeEvent is the payload of node.attached and node.detached.
type NodeEvent struct {
	Node *Node
	ID   NodeID
	Name string
}

// ComponentEvent is the payload of component.added and component.removed.
type ComponentEvent struct {
	Node      *Node
	Component Component
	ID        ComponentID
	Type      TypeKey
}

// ReadinessEvent is the payload of component.readiness.
type ReadinessEvent struct {
	Component Component
	ID        ComponentID
	Ready     bool
}

func (s *Scene) publish(typ string, data func() any) {
	if s.bus == nil || !s.bus.HasSubscribers(typ) {
		return
	}
	if err := s.bus.Publish(bus.NewEvent(typ, s.source, data())); err != nil {
		s.log.Warn("scene event handler failed", log.String("event", typ), log.Error(err))
	}
}

func (s *Scene) publishNode(typ string, n *Node) {
	s.publish(typ, func() any {
		return NodeEvent{Node: n, ID: n.id, Name: n.name}
	})
}

func (s *Scene) publishComponent(typ string, n *Node, c Component) {
	s.publish(typ, func() any {
		b := c.base()
		return ComponentEvent{Node: n, Component: c, ID: b.id, Type: b.desc.key}
	})
}

func (s *Scene) publishReadiness(c Component, ready bool) {
	s.publish(EventReadinessChanged, func() any {
		return ReadinessEvent{Component: c, ID: c.base().id, Ready: ready}
	})
}

func logComponent(c Component, err error) []log.Field {
	b := c.base()
	return []log.Field{
		log.Uint64("component", uint64(b.id)),
		log.Type("type", reflect.TypeOf(c)),
		log.Error(err),
	}
}
