package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog/log"
)

const DefaultSearchDelay = 500 * time.Millisecond

type Refresher interface {
	Refresh(ctx context.Context, term string) error
}

// Searcher convierte lo que se tipea en un único listado por ventana de
// silencio. Cada tecla reinicia el timer; al vencer se lista con el texto de
// ese momento, recortado.
type Searcher struct {
	ctx    context.Context
	target Refresher
	clock  clock.Clock
	delay  time.Duration

	mu    sync.Mutex
	text  string
	timer clock.Timer
	gen   uint64
}

func NewSearcher(ctx context.Context, target Refresher, clk clock.Clock, delay time.Duration) *Searcher {
	if clk == nil {
		clk = clock.WallClock
	}
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &Searcher{ctx: ctx, target: target, clock: clk, delay: delay}
}

// Type registra el texto vivo del campo de búsqueda.
func (s *Searcher) Type(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.stopLocked()
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(gen) })
}

func (s *Searcher) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Flush lista ya mismo con el texto actual (Enter), sin esperar el timer.
func (s *Searcher) Flush() error {
	s.mu.Lock()
	s.stopLocked()
	term := strings.TrimSpace(s.text)
	s.mu.Unlock()
	return s.trigger(term)
}

// Stop descarta el timer pendiente.
func (s *Searcher) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

// stopLocked invalida el timer actual; gen protege contra un disparo que ya
// estaba en camino cuando se llamó a Stop.
func (s *Searcher) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Searcher) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.timer = nil
	term := strings.TrimSpace(s.text)
	s.mu.Unlock()
	_ = s.trigger(term)
}

func (s *Searcher) trigger(term string) error {
	err := s.target.Refresh(s.ctx, term)
	if err != nil && !errors.Is(err, ErrSuperseded) {
		log.Debug().Err(err).Str("search", term).Msg("búsqueda")
	}
	return err
}
