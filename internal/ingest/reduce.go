package ingest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/nfrund/chaosarena/internal/catalog"
	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/ledger"
	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/sim"
)

// DefaultStartingBalance is granted to a viewer on first join.
const DefaultStartingBalance = 1000

// Env carries the collaborators a transition may consult.
type Env struct {
	Catalog         *catalog.Catalog
	Rand            sim.Rand
	Now             func() time.Time
	StartingBalance int
	Difficulty      float64
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e Env) rand() sim.Rand {
	if e.Rand == nil {
		return globalRand{}
	}
	return e.Rand
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) Intn(n int) int   { return rand.Intn(n) }

func (e Env) catalog() *catalog.Catalog {
	if e.Catalog == nil {
		return catalog.Default()
	}
	return e.Catalog
}

func (e Env) startingBalance() int {
	if e.StartingBalance <= 0 {
		return DefaultStartingBalance
	}
	return e.StartingBalance
}

// Result is the outcome of one transition. Handlers never log on their own;
// they hand back what happened and the host decides what to do with it.
type Result struct {
	State match.State
	// Logged lists the events this transition appended, oldest first.
	Logged []match.GameEvent
	// Rejection is set when the intent was dropped. State is then unchanged.
	Rejection error
	// Payouts is non-empty only on the transition into GAME_OVER.
	Payouts []ledger.Payout
	// MatchOver marks the transition into GAME_OVER.
	MatchOver bool
}

// Reduce applies one command. It never mutates the slices of s.
func Reduce(s match.State, cmd Command, env Env) Result {
	r := reducer{env: env, prev: s.Status}
	next := r.apply(s, cmd)
	if r.rejection != nil {
		return Result{State: s, Rejection: r.rejection}
	}

	if r.prev != match.StatusGameOver && next.Status == match.StatusGameOver {
		next = r.settle(next)
	}

	return Result{
		State:     next,
		Logged:    r.logged,
		Payouts:   r.payouts,
		MatchOver: r.matchOver,
	}
}

type reducer struct {
	env       Env
	prev      match.Status
	logged    []match.GameEvent
	payouts   []ledger.Payout
	matchOver bool
	rejection error
}

func (r *reducer) reject(s match.State, err error) match.State {
	r.rejection = err
	return s
}

func (r *reducer) log(s match.State, text string, category match.Category) match.State {
	e := match.NewEvent(text, category, r.env.now())
	s.Events = match.AppendEvent(s.Events, e)
	r.logged = append(r.logged, e)
	return s
}

func (r *reducer) apply(s match.State, cmd Command) match.State {
	switch c := cmd.(type) {
	case Tick:
		return sim.Tick(s, c.DT)
	case SpawnAmbient:
		return sim.AmbientSpawn(s, r.env.rand())
	case Move:
		return sim.Move(s, c.DX, c.DY)
	case Shoot:
		return sim.Shoot(s, c.X, c.Y)
	case SpawnHostile:
		return sim.SpawnHostile(s, c.Class, r.env.rand())
	case Buff:
		return sim.Buff(s, c.Kind)
	case Join:
		return r.join(s, c)
	case Purchase:
		return r.purchase(s, c)
	case PlaceBet:
		return r.bet(s, c)
	case Start:
		return r.start(s)
	case Reset:
		return r.reset(s)
	case AppendLog:
		if !c.Category.Valid() {
			return r.reject(s, fmt.Errorf("category %q: %w", c.Category, domain.ErrInvalidEvent))
		}
		return r.log(s, c.Text, c.Category)
	default:
		return r.reject(s, fmt.Errorf("%T: %w", cmd, domain.ErrUnknownCommand))
	}
}

// join is idempotent: a known id keeps its name, balance and bet.
func (r *reducer) join(s match.State, c Join) match.State {
	name := c.Name
	if name == "" {
		name = "Viewer"
	}
	viewers, added := ledger.Open(s.Viewers, c.ViewerID, name, r.env.startingBalance())
	if !added {
		return s
	}
	s.Viewers = viewers
	return r.log(s, joinedText(name), match.CategoryInfo)
}

// purchase re-validates against the balance held right now and charges the
// catalog price, not whatever the viewer quoted.
func (r *reducer) purchase(s match.State, c Purchase) match.State {
	item, err := r.env.catalog().Lookup(c.ItemID)
	if err != nil {
		return r.reject(s, err)
	}
	if _, ok := s.FindViewer(c.ViewerID); !ok {
		return r.reject(s, fmt.Errorf("viewer %q: %w", c.ViewerID, domain.ErrUnknownViewer))
	}
	if !s.Playing() {
		return r.reject(s, domain.ErrNotPlaying)
	}
	viewers, err := ledger.Debit(s.Viewers, c.ViewerID, item.Cost)
	if err != nil {
		return r.reject(s, err)
	}
	s.Viewers = viewers

	name := s.ViewerName(c.ViewerID)
	switch item.Category {
	case catalog.CategoryDebuff:
		s = sim.SpawnHostile(s, item.HostileClass(), r.env.rand())
		return r.log(s, summonedText(name, item.Name), match.CategoryDanger)
	default:
		s = sim.Buff(s, item.BuffKind())
		return r.log(s, giftedText(name, item.Name), match.CategoryBuff)
	}
}

func (r *reducer) bet(s match.State, c PlaceBet) match.State {
	if !s.Playing() {
		return r.reject(s, domain.ErrNotPlaying)
	}
	viewers, err := ledger.PlaceBet(s.Viewers, c.ViewerID, c.Side, c.Amount)
	if err != nil {
		return r.reject(s, err)
	}
	s.Viewers = viewers
	return r.log(s, betText(s.ViewerName(c.ViewerID), c.Amount, c.Side), match.CategoryInfo)
}

func (r *reducer) start(s match.State) match.State {
	if s.Playing() {
		return r.reject(s, domain.ErrMatchInProgress)
	}
	next := match.New(r.difficulty(s))
	next.Status = match.StatusPlaying
	next.Viewers = ledger.ClearBets(s.Viewers)
	return next
}

func (r *reducer) reset(s match.State) match.State {
	next := match.New(r.difficulty(s))
	next.Viewers = append(make([]match.Viewer, 0, len(s.Viewers)), s.Viewers...)
	return next
}

func (r *reducer) difficulty(s match.State) float64 {
	if r.env.Difficulty > 0 {
		return r.env.Difficulty
	}
	return s.DifficultyMultiplier
}

// settle runs once per edge into GAME_OVER. Payout lines are logged before
// the game over line so the latter ends up on top.
func (r *reducer) settle(s match.State) match.State {
	viewers, payouts := ledger.Settle(s.Viewers)
	s.Viewers = viewers
	for _, p := range payouts {
		s = r.log(s, payoutText(p.Name), match.CategoryInfo)
	}
	r.payouts = payouts
	r.matchOver = true
	return r.log(s, gameOverText, match.CategoryDanger)
}
