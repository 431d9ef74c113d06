// Package ledger owns viewer balances and the bet lifecycle. Every function is
// copy-on-write: it returns a new viewer slice and leaves its input alone.
package ledger

import (
	"fmt"

	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/match"
)

// PayoutMultiplier is applied to a winning LOSE stake.
const PayoutMultiplier = 2

// Payout records one settlement credit.
type Payout struct {
	ViewerID string
	Name     string
	Amount   int
}

// Open registers a viewer with a starting balance. Opening an id that already
// exists is a no-op and reports false.
func Open(viewers []match.Viewer, id, name string, balance int) ([]match.Viewer, bool) {
	for _, v := range viewers {
		if v.ID == id {
			return viewers, false
		}
	}
	out := make([]match.Viewer, 0, len(viewers)+1)
	out = append(out, viewers...)
	out = append(out, match.Viewer{ID: id, Name: name, Balance: balance})
	return out, true
}

// Credit adds amount to a viewer's balance.
func Credit(viewers []match.Viewer, id string, amount int) ([]match.Viewer, error) {
	return update(viewers, id, func(v *match.Viewer) error {
		v.Balance += amount
		return nil
	})
}

// Debit removes amount only if the viewer can cover it, so balances never go
// negative through the ledger.
func Debit(viewers []match.Viewer, id string, amount int) ([]match.Viewer, error) {
	return update(viewers, id, func(v *match.Viewer) error {
		if v.Balance < amount {
			return fmt.Errorf("debit %d against %d: %w", amount, v.Balance, domain.ErrInsufficientBalance)
		}
		v.Balance -= amount
		return nil
	})
}

// PlaceBet records a wager and debits the stake immediately. A viewer gets one
// bet per match and cannot stake more than their balance.
func PlaceBet(viewers []match.Viewer, id string, side match.BetSide, amount int) ([]match.Viewer, error) {
	if (side != match.BetWin && side != match.BetLose) || amount <= 0 {
		return viewers, domain.ErrInvalidBet
	}
	return update(viewers, id, func(v *match.Viewer) error {
		if v.HasBet() {
			return domain.ErrBetAlreadyPlaced
		}
		if v.Balance < amount {
			return fmt.Errorf("stake %d against %d: %w", amount, v.Balance, domain.ErrInsufficientBalance)
		}
		v.Balance -= amount
		v.BetOn = side
		v.BetAmount = amount
		return nil
	})
}

// Settle pays every LOSE bettor twice their stake. WIN stakes are forfeit.
// Callers must invoke it once per transition into GAME_OVER.
func Settle(viewers []match.Viewer) ([]match.Viewer, []Payout) {
	out := make([]match.Viewer, len(viewers))
	copy(out, viewers)

	var payouts []Payout
	for i := range out {
		v := &out[i]
		if v.BetOn != match.BetLose || v.BetAmount <= 0 {
			continue
		}
		amount := v.BetAmount * PayoutMultiplier
		v.Balance += amount
		payouts = append(payouts, Payout{ViewerID: v.ID, Name: v.Name, Amount: amount})
	}
	return out, payouts
}

// ClearBets drops every viewer's bet while keeping balances.
func ClearBets(viewers []match.Viewer) []match.Viewer {
	out := make([]match.Viewer, len(viewers))
	for i, v := range viewers {
		v.BetOn = match.BetNone
		v.BetAmount = 0
		out[i] = v
	}
	return out
}

func update(viewers []match.Viewer, id string, fn func(*match.Viewer) error) ([]match.Viewer, error) {
	for i := range viewers {
		if viewers[i].ID != id {
			continue
		}
		v := viewers[i]
		if err := fn(&v); err != nil {
			return viewers, err
		}
		out := make([]match.Viewer, len(viewers))
		copy(out, viewers)
		out[i] = v
		return out, nil
	}
	return viewers, fmt.Errorf("viewer %q: %w", id, domain.ErrUnknownViewer)
}
