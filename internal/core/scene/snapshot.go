package scene

import "reflect"

// Snapshot is a read-only diagnostic view of a scene at one point in time. It holds no
// references into the graph and is safe to hand to another goroutine.
type Snapshot struct {
	SceneID    string              `json:"scene_id"`
	Name       string              `json:"name"`
	Frame      uint64              `json:"frame"`
	Nodes      int                 `json:"nodes"`
	Components int                 `json:"components"`
	Ready      int                 `json:"ready"`
	Pending    int                 `json:"pending"`
	Processors []ProcessorSnapshot `json:"processors"`
	Waiting    []WaitingComponent  `json:"waiting,omitempty"`
}

// ProcessorSnapshot reports the membership size of one processor.
type ProcessorSnapshot struct {
	Key     TypeKey `json:"key"`
	Type    string  `json:"type"`
	Members int     `json:"members"`
}

// WaitingComponent is an attached component that is not ready, with the required slots
// it still lacks.
type WaitingComponent struct {
	ID      ComponentID `json:"id"`
	Node    string      `json:"node"`
	Type    string      `json:"type"`
	Unbound []string    `json:"unbound"`
}

// Snapshot walks the tree under the root and collects counters.
func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{
		SceneID:    s.id.String(),
		Name:       s.name,
		Frame:      s.frame,
		Pending:    s.manager.queue.len(),
		Processors: make([]ProcessorSnapshot, 0, len(s.manager.registry.entries)),
	}
	for _, e := range s.manager.registry.entries {
		snap.Processors = append(snap.Processors, ProcessorSnapshot{
			Key:     e.key,
			Type:    TypeName(e.typ),
			Members: len(e.members),
		})
	}
	if s.root == nil {
		return snap
	}

	s.root.Walk(func(n *Node) bool {
		snap.Nodes++
		for _, c := range n.Components() {
			snap.Components++
			b := c.base()
			if b.ready {
				snap.Ready++
				continue
			}
			snap.Waiting = append(snap.Waiting, WaitingComponent{
				ID:      b.id,
				Node:    n.String(),
				Type:    TypeName(reflect.TypeOf(c)),
				Unbound: b.UnboundSlots(),
			})
		}
		return true
	})
	return snap
}
