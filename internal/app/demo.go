package app

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/scenegraph/internal/core/components"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/scene"
)

// logRenderer is the headless render backend: draws go to the debug log.
type logRenderer struct {
	log   log.Log
	draws uint64
}

func (r *logRenderer) Submit(dc components.DrawCall) {
	r.draws++
	pos := mgl64.TransformCoordinate(mgl64.Vec3{}, dc.World)
	r.log.Debug("draw",
		log.String("mesh", dc.Mesh),
		log.Uint64("component", uint64(dc.Component)),
		log.Float64("x", pos.X()),
		log.Float64("y", pos.Y()),
		log.Float64("z", pos.Z()))
}

// Demo is the handle on the sample world built by BuildDemo.
type Demo struct {
	World   *scene.Node
	Cube    *scene.Node
	Speaker *scene.Node

	Render *components.RenderProcessor
	Audio  *components.AudioProcessor

	backend *logRenderer
}

// BuildDemo populates s with a spinning cube and a speaker under a shared world
// transform. Components are added before the transforms they require so the first
// drain exercises deferred binding.
func BuildDemo(s *scene.Scene, logger log.Log) (*Demo, error) {
	backend := &logRenderer{log: logger}
	d := &Demo{
		Render:  components.NewRenderProcessorWith(logger, backend),
		Audio:   components.NewAudioProcessorWith(logger),
		backend: backend,
	}
	for _, p := range []scene.Processor{d.Render, d.Audio} {
		if err := s.AddProcessor(p); err != nil {
			return nil, err
		}
	}

	d.World = s.NewNode("world")
	d.Cube = s.NewNode("cube")
	d.Speaker = s.NewNode("speaker")

	steps := []func() error{
		func() error { return s.SetRoot(d.World) },
		func() error { return d.World.AddChild(d.Cube) },
		func() error { return d.World.AddChild(d.Speaker) },
		func() error { return d.Cube.Add(&components.MeshRenderer{Mesh: "cube"}) },
		func() error {
			return d.Cube.Add(&components.Spinner{Axis: mgl64.Vec3{0, 1, 0}, Speed: math.Pi / 2})
		},
		func() error {
			return d.Cube.Add(&components.Material{Name: "brick", Color: mgl64.Vec4{0.7, 0.3, 0.2, 1}})
		},
		func() error { return d.Cube.Add(components.NewTransform(mgl64.Vec3{0, 1, -5})) },
		func() error { return d.Speaker.Add(&components.AudioEmitter{Clip: "ambience", Volume: 0.6}) },
		func() error { return d.Speaker.Add(components.NewTransform(mgl64.Vec3{4, 0, 0})) },
		func() error { return d.World.Add(components.NewTransform(mgl64.Vec3{})) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return d, nil
}
