// Package app drives a scene at a fixed tick rate and, when enabled, serves its
// snapshots to the inspector.
package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/scenegraph/internal/config"
	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/scene"
	"github.com/zeusync/scenegraph/internal/inspector"
)

type Runtime struct {
	cfg       *config.Config
	log       log.Log
	scene     *scene.Scene
	inspector *inspector.Server

	subs  []bus.Subscription
	ticks uint64
}

// New assembles a runtime. insp may be nil, in which case nothing is served.
func New(cfg *config.Config, logger log.Log, s *scene.Scene, insp *inspector.Server) *Runtime {
	return &Runtime{
		cfg:       cfg,
		log:       logger.With(log.String("component", "runtime")),
		scene:     s,
		inspector: insp,
	}
}

func (r *Runtime) Scene() *scene.Scene          { return r.scene }
func (r *Runtime) Inspector() *inspector.Server { return r.inspector }

// Ticks is the number of completed frames. Only meaningful once Run returned.
func (r *Runtime) Ticks() uint64 { return r.ticks }

// Run ticks the scene until ctx is cancelled or the configured tick limit is
// reached. The scene is only touched from the tick goroutine.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.watch(); err != nil {
		return err
	}
	defer r.unwatch()

	g, gctx := errgroup.WithContext(ctx)
	gctx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		defer stop()
		return r.loop(gctx)
	})
	if r.inspector != nil {
		g.Go(func() error {
			return r.inspector.Run(gctx)
		})
	}

	err := g.Wait()
	r.log.Info("runtime stopped", log.Uint64("ticks", r.ticks), log.Uint64("frame", r.scene.Frame()))
	return err
}

func (r *Runtime) loop(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Loop.TickRate)
	defer ticker.Stop()

	r.log.Info("tick loop started",
		log.Duration("tick_rate", r.cfg.Loop.TickRate),
		log.Uint64("max_ticks", r.cfg.Loop.MaxTicks))

	r.publish()
	var published time.Time
	for {
		select {
		case <-ctx.Done():
			r.publish()
			return nil
		case now := <-ticker.C:
			if err := r.scene.Update(); err != nil {
				return err
			}
			r.ticks++

			if r.cfg.Loop.MaxTicks > 0 && r.ticks >= r.cfg.Loop.MaxTicks {
				r.publish()
				return nil
			}
			if now.Sub(published) >= r.cfg.Inspector.Interval {
				r.publish()
				published = now
			}
		}
	}
}

func (r *Runtime) publish() {
	if r.inspector == nil {
		return
	}
	r.inspector.Publish(r.scene.Snapshot())
}

// watch mirrors scene lifecycle events into the debug log.
func (r *Runtime) watch() error {
	b := r.scene.Bus()
	handlers := map[string]bus.EventHandler{
		scene.EventNodeAttached: func(e bus.Event) error {
			ev := e.Data().(scene.NodeEvent)
			r.log.Debug("node attached", log.String("node", ev.Node.String()))
			return nil
		},
		scene.EventNodeDetached: func(e bus.Event) error {
			ev := e.Data().(scene.NodeEvent)
			r.log.Debug("node detached", log.String("node", ev.Node.String()))
			return nil
		},
		scene.EventReadinessChanged: func(e bus.Event) error {
			ev := e.Data().(scene.ReadinessEvent)
			r.log.Debug("readiness changed",
				log.Uint64("component_id", uint64(ev.ID)),
				log.Type("type", scene.Describe(ev.Component).Type),
				log.Bool("ready", ev.Ready))
			return nil
		},
	}

	var errs []error
	for _, typ := range []string{scene.EventNodeAttached, scene.EventNodeDetached, scene.EventReadinessChanged} {
		sub, err := b.Subscribe(typ, handlers[typ])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.subs = append(r.subs, sub)
	}
	if err := errors.Join(errs...); err != nil {
		r.unwatch()
		return err
	}
	return nil
}

func (r *Runtime) unwatch() {
	for _, sub := range r.subs {
		_ = r.scene.Bus().Unsubscribe(sub)
	}
	r.subs = nil
}
