// Package components holds the stock components of the scene graph and the processors
// that stand in for the renderer, audio and animation backends.
package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/scenegraph/internal/core/scene"
)

// Transform places a node relative to its parent node.
type Transform struct {
	scene.Base

	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// NewTransform returns an identity transform at position.
func NewTransform(position mgl64.Vec3) *Transform {
	return &Transform{
		Position: position,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Local is the translate * rotate * scale matrix of this transform alone.
func (t *Transform) Local() mgl64.Mat4 {
	tr := mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	sc := mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return tr.Mul4(t.Rotation.Normalize().Mat4()).Mul4(sc)
}

// World composes Local with the transforms of the ancestor nodes. Ancestors without a
// Transform are skipped.
func (t *Transform) World() mgl64.Mat4 {
	m := t.Local()
	n := t.Node()
	if n == nil {
		return m
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if pt := scene.Get[Transform](p); pt != nil {
			return pt.World().Mul4(m)
		}
	}
	return m
}

// WorldPosition is the origin of the transform in world space.
func (t *Transform) WorldPosition() mgl64.Vec3 {
	return mgl64.TransformCoordinate(mgl64.Vec3{}, t.World())
}

// Material is the surface description a MeshRenderer draws with.
type Material struct {
	scene.Base

	Name  string
	Color mgl64.Vec4
}

// DefaultColor is used by renderers without a Material.
var DefaultColor = mgl64.Vec4{1, 0, 1, 1}
