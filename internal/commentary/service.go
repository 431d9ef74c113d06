package commentary

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/nfrund/chaosarena/internal/ingest"
	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/topics"
)

// Prefix marks caster lines in the log.
const Prefix = "🎙️ "

const (
	DefaultCooldown    = 8 * time.Second
	DefaultTimeout     = 5 * time.Second
	DefaultMaxInFlight = 2
)

// Submitter accepts commands for the host loop.
type Submitter interface {
	Submit(cmd ingest.Command) error
}

// Options configures a Service. Zero values take the defaults.
type Options struct {
	Cooldown    time.Duration
	Timeout     time.Duration
	MaxInFlight int64
	Logger      *slog.Logger
	Now         func() time.Time
}

// Service reacts to logged events with caster lines. DANGER events bypass
// the cooldown and restart it.
type Service struct {
	gen      Generator
	host     Submitter
	cooldown time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.Mutex
	limiter *rate.Limiter

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(gen Generator, host Submitter, opts Options) *Service {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		gen:      gen,
		host:     host,
		cooldown: opts.Cooldown,
		timeout:  opts.Timeout,
		now:      opts.Now,
		logger:   opts.Logger.With("service", "commentary"),
		limiter:  rate.NewLimiter(rate.Every(opts.Cooldown), 1),
		sem:      semaphore.NewWeighted(opts.MaxInFlight),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Trigger starts a generator call for ev unless the cooldown, the in-flight
// bound or the event's own category rules it out. It never blocks and
// reports whether a call was started.
func (s *Service) Trigger(ev topics.EventLogged) bool {
	category := match.Category(ev.Category)
	if category == match.CategoryCommentary || s.ctx.Err() != nil {
		return false
	}
	if !s.admit(category == match.CategoryDanger) {
		return false
	}
	if !s.sem.TryAcquire(1) {
		s.logger.Debug("Commentary busy, skipping event", "event_id", ev.ID)
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		s.run(Prompt{Event: ev.Text, Score: ev.Score, HPPercent: ev.HPPercent})
	}()
	return true
}

func (s *Service) admit(danger bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if danger {
		s.limiter = rate.NewLimiter(rate.Every(s.cooldown), 1)
		s.limiter.AllowN(now, 1)
		return true
	}
	return s.limiter.AllowN(now, 1)
}

func (s *Service) run(p Prompt) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	line, err := s.generate(ctx, p)
	if err != nil {
		s.logger.Debug("Commentary skipped", "error", err)
		return
	}
	if err := s.host.Submit(ingest.AppendLog{Text: Prefix + line, Category: match.CategoryCommentary}); err != nil {
		s.logger.Debug("Commentary dropped", "error", err)
	}
}

func (s *Service) generate(ctx context.Context, p Prompt) (line string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("commentary generator panic: %v", r)
		}
	}()
	return s.gen.Generate(ctx, p)
}

// Shutdown cancels in-flight calls and waits for them to return.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
