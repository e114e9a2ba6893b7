package app

import (
	"errors"
	"sync"

	"github.com/dkeye/Talk/internal/core"
)

// recorder is an in-memory Directory that decodes everything it is asked to emit.
type recorder struct {
	mu   sync.Mutex
	live map[core.ConnID]bool
	got  map[core.ConnID][]core.Envelope
}

func newRecorder(conns ...core.ConnID) *recorder {
	r := &recorder{live: map[core.ConnID]bool{}, got: map[core.ConnID][]core.Envelope{}}
	for _, c := range conns {
		r.live[c] = true
	}
	return r
}

func (r *recorder) Emit(to core.ConnID, f core.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live[to] {
		return
	}
	env, err := core.Decode(f)
	if err != nil {
		panic(err)
	}
	r.got[to] = append(r.got[to], env)
}

func (r *recorder) Has(id core.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live[id]
}

// take returns what conn received so far and forgets it.
func (r *recorder) take(conn core.ConnID) []core.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.got[conn]
	delete(r.got, conn)
	return out
}

func (r *recorder) takeAll() map[core.ConnID][]core.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.got
	r.got = map[core.ConnID][]core.Envelope{}
	return out
}

func kinds(envs []core.Envelope) []string {
	out := make([]string, 0, len(envs))
	for _, e := range envs {
		out = append(out, e.Type)
	}
	return out
}

var errFull = errors.New("queue full")

type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (s *fakeSignal) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrConnClosed
	}
	if s.full {
		return errFull
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *fakeSignal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
