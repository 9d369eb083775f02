package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/scene"
)

// MeshRenderer draws a mesh at its sibling Transform.
type MeshRenderer struct {
	scene.Base

	Mesh      string
	Transform *Transform
	Material  *Material
}

// DrawCall is one submitted draw.
type DrawCall struct {
	Component scene.ComponentID
	Mesh      string
	World     mgl64.Mat4
	Color     mgl64.Vec4
}

// Renderer is the graphics backend the RenderProcessor submits to.
type Renderer interface {
	Submit(DrawCall)
}

// RenderProcessor turns every ready MeshRenderer into a DrawCall per frame. Without a
// backend the calls are buffered until Flush.
type RenderProcessor struct {
	log     log.Log
	backend Renderer
	pending []DrawCall
	visible int
}

func NewRenderProcessor() *RenderProcessor {
	return NewRenderProcessorWith(log.Provide(), nil)
}

func NewRenderProcessorWith(logger log.Log, backend Renderer) *RenderProcessor {
	return &RenderProcessor{log: logger, backend: backend}
}

func (p *RenderProcessor) OnMemberAttached(c scene.Component) {
	p.visible++
	r := c.(*MeshRenderer)
	p.log.Debug("mesh visible", log.String("mesh", r.Mesh), log.Uint64("component", uint64(r.ID())))
}

func (p *RenderProcessor) OnMemberDetached(c scene.Component) {
	p.visible--
	r := c.(*MeshRenderer)
	p.log.Debug("mesh hidden", log.String("mesh", r.Mesh), log.Uint64("component", uint64(r.ID())))
}

func (p *RenderProcessor) Update(c scene.Component) {
	r := c.(*MeshRenderer)
	color := DefaultColor
	if r.Material != nil {
		color = r.Material.Color
	}
	dc := DrawCall{
		Component: r.ID(),
		Mesh:      r.Mesh,
		World:     r.Transform.World(),
		Color:     color,
	}
	if p.backend != nil {
		p.backend.Submit(dc)
		return
	}
	p.pending = append(p.pending, dc)
}

// Visible is the number of meshes currently drawn each frame.
func (p *RenderProcessor) Visible() int { return p.visible }

// Flush returns and clears the buffered draw calls.
func (p *RenderProcessor) Flush() []DrawCall {
	out := p.pending
	p.pending = nil
	return out
}
