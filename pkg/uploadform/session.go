package uploadform

import (
	"sync/atomic"

	"github.com/bft-labs/formship/pkg/events"
	"github.com/bft-labs/formship/pkg/log"
	"github.com/bft-labs/formship/pkg/transport"
)

// session is one upload. It receives the transport's reports and lets the
// first terminal outcome through.
type session struct {
	u         *Uploader
	transport transport.Transport
	done      atomic.Bool
}

func (s *session) BeforeSend() {
	if s.done.Load() {
		return
	}
	s.u.bus.Emit(events.Event{Category: events.BeforeSend})
}

func (s *session) Progress(p transport.Progress) {
	if s.done.Load() {
		return
	}
	s.u.bus.Emit(events.Event{Category: events.Progress, Direction: string(p.Direction), Raw: p})
}

func (s *session) Complete(r transport.Result) {
	if !s.done.CompareAndSwap(false, true) {
		s.u.logger.Debug("late outcome dropped", log.String("kind", string(r.Kind)))
		return
	}
	s.u.finish(s, r)
}
