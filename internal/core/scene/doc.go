// Package scene is the node/component runtime of the scene graph.
//
// A Node owns at most one component per concrete type plus child nodes. Component
// types declare dependency slots on sibling types once, through Declare:
//
//	scene.Declare[MeshRenderer](
//	    scene.Require("transform", func(r *MeshRenderer) **Transform { return &r.Transform }),
//	    scene.Optional("material", func(r *MeshRenderer) **Material { return &r.Material }),
//	    scene.ProcessedBy(NewRenderProcessor),
//	)
//
// When a component attaches to a node that lives in a Scene, its slots are bound to
// siblings of the target types, in whatever order they arrive. A component is ready
// while it is attached and every required slot is bound. Readiness flips are queued on
// the scene's Manager and applied to processor membership once per Scene.Update, right
// before processors run over their members.
//
// The runtime is single-threaded: all mutation happens on the goroutine that drives
// Scene.Update. Only the process-wide descriptor cache is safe for concurrent use.
package scene
