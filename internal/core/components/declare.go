package components

import "github.com/zeusync/scenegraph/internal/core/scene"

func init() {
	scene.Declare[MeshRenderer](
		scene.Require("transform", func(r *MeshRenderer) **Transform { return &r.Transform }),
		scene.Optional("material", func(r *MeshRenderer) **Material { return &r.Material }),
		scene.ProcessedBy(NewRenderProcessor),
	)
	scene.Declare[AudioEmitter](
		scene.Require("transform", func(e *AudioEmitter) **Transform { return &e.Transform }),
		scene.ProcessedBy(NewAudioProcessor),
	)
	scene.Declare[Spinner](
		scene.Require("transform", func(s *Spinner) **Transform { return &s.Transform }),
		scene.ProcessedBy(NewMotionProcessor),
	)
}
