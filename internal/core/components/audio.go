package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/scene"
)

// AudioEmitter plays a looping clip at its sibling Transform.
type AudioEmitter struct {
	scene.Base

	Clip      string
	Volume    float64
	Transform *Transform
}

// Voice is the playback state of one emitter.
type Voice struct {
	Clip     string
	Volume   float64
	Position mgl64.Vec3
	Gain     float64
}

// AudioProcessor keeps one voice per ready emitter and attenuates it by distance to the
// listener.
type AudioProcessor struct {
	log      log.Log
	listener mgl64.Vec3
	rolloff  float64
	voices   map[*AudioEmitter]*Voice
}

func NewAudioProcessor() *AudioProcessor {
	return NewAudioProcessorWith(log.Provide())
}

func NewAudioProcessorWith(logger log.Log) *AudioProcessor {
	return &AudioProcessor{
		log:     logger,
		rolloff: 1,
		voices:  make(map[*AudioEmitter]*Voice),
	}
}

// SetListener moves the listener used for attenuation.
func (p *AudioProcessor) SetListener(pos mgl64.Vec3) { p.listener = pos }

func (p *AudioProcessor) OnMemberAttached(c scene.Component) {
	e := c.(*AudioEmitter)
	p.voices[e] = &Voice{Clip: e.Clip, Volume: e.Volume}
	p.log.Debug("voice started", log.String("clip", e.Clip))
}

func (p *AudioProcessor) OnMemberDetached(c scene.Component) {
	e := c.(*AudioEmitter)
	delete(p.voices, e)
	p.log.Debug("voice stopped", log.String("clip", e.Clip))
}

func (p *AudioProcessor) Update(c scene.Component) {
	e := c.(*AudioEmitter)
	v, ok := p.voices[e]
	if !ok {
		return
	}
	v.Position = e.Transform.WorldPosition()
	v.Volume = e.Volume
	dist := v.Position.Sub(p.listener).Len()
	v.Gain = e.Volume / (1 + p.rolloff*dist)
}

// Voice returns the voice of e, if it is playing.
func (p *AudioProcessor) Voice(e *AudioEmitter) (Voice, bool) {
	v, ok := p.voices[e]
	if !ok {
		return Voice{}, false
	}
	return *v, true
}

// Playing is the number of active voices.
func (p *AudioProcessor) Playing() int { return len(p.voices) }
