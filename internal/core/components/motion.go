package components

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/scenegraph/internal/core/scene"
)

// Spinner rotates its sibling Transform around Axis at Speed radians per second.
type Spinner struct {
	scene.Base

	Axis      mgl64.Vec3
	Speed     float64
	Transform *Transform
}

// DefaultStep is the time step MotionProcessor advances per update unless set.
const DefaultStep = 16 * time.Millisecond

// MotionProcessor advances spinners by a fixed step each frame.
type MotionProcessor struct {
	step time.Duration
}

func NewMotionProcessor() *MotionProcessor {
	return &MotionProcessor{step: DefaultStep}
}

// SetStep changes the simulated time per frame.
func (p *MotionProcessor) SetStep(d time.Duration) { p.step = d }

func (p *MotionProcessor) OnMemberAttached(scene.Component) {}
func (p *MotionProcessor) OnMemberDetached(scene.Component) {}

func (p *MotionProcessor) Update(c scene.Component) {
	s := c.(*Spinner)
	if s.Axis.Len() == 0 {
		return
	}
	angle := s.Speed * p.step.Seconds()
	delta := mgl64.QuatRotate(angle, s.Axis.Normalize())
	s.Transform.Rotation = delta.Mul(s.Transform.Rotation).Normalize()
}
