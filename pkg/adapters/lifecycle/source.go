// Package lifecycle exposes graph change events as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/outline/pkg/core"
)

type pageSource struct {
	events <-chan core.Event
	accept map[core.EventType]bool
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source from a page event channel, such as the
// one returned by core.Service.Watch. When types is not empty only events of
// those types are forwarded.
func NewSource(events <-chan core.Event, types ...core.EventType) lifecycle.Source {
	s := &pageSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	if len(types) > 0 {
		s.accept = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.accept[t] = true
		}
	}
	return s
}

func (s *pageSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done or the page channel closes,
// then closes Events.
func (s *pageSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.accept != nil && !s.accept[e.Type] {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
