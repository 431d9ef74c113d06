package arena

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/ingest"
	"github.com/nfrund/chaosarena/internal/protocol"
	"github.com/nfrund/chaosarena/internal/pubsub"
	"github.com/nfrund/chaosarena/internal/topics"
)

// CommandFor maps a viewer message onto a host command. SYNC_STATE only
// travels from host to viewer, so it has no command.
func CommandFor(msg protocol.Message) (ingest.Command, bool) {
	switch m := msg.(type) {
	case protocol.Join:
		return ingest.Join{ViewerID: m.ID, Name: m.Name}, true
	case protocol.Purchase:
		return ingest.Purchase{ViewerID: m.ViewerID, ItemID: m.ItemID}, true
	case protocol.Bet:
		return ingest.PlaceBet{ViewerID: m.ViewerID, Side: m.BetType, Amount: m.Amount}, true
	}
	return nil, false
}

// handleViewerMessage never fails a delivery: a bad frame is the viewer's
// problem and is dropped.
func (m *ArenaModule) handleViewerMessage(_ context.Context, raw json.RawMessage, msg pubsub.Message) error {
	decoded, err := protocol.Decode(raw)
	if err != nil {
		m.logger.Debug("Dropping malformed viewer message", "conn_id", msg.SenderID, "error", err)
		return nil
	}
	cmd, ok := CommandFor(decoded)
	if !ok {
		m.logger.Debug("Ignoring viewer message", "conn_id", msg.SenderID, "type", decoded.MessageType())
		return nil
	}
	if err := m.host.Submit(cmd); err != nil {
		if errors.Is(err, domain.ErrHostStopped) {
			m.logger.Debug("Host not accepting viewer commands", "conn_id", msg.SenderID)
			return nil
		}
		m.logger.Warn("Dropping viewer command", "conn_id", msg.SenderID, "type", decoded.MessageType(), "error", err)
	}
	return nil
}

// enqueue runs on the host goroutine, so it hands off without blocking.
func (m *ArenaModule) enqueue(res ingest.Result) {
	select {
	case m.results <- res:
	default:
		m.logger.Warn("Result buffer full, dropping events", "events", len(res.Logged))
	}
}

func (m *ArenaModule) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-m.results:
			m.publish(ctx, res)
		}
	}
}

func (m *ArenaModule) publish(ctx context.Context, res ingest.Result) {
	s := res.State
	for _, ev := range res.Logged {
		payload := topics.EventLogged{
			ID:        ev.ID,
			Text:      ev.Text,
			Category:  string(ev.Type),
			Timestamp: ev.Timestamp,
			Score:     s.Score,
			HPPercent: s.Avatar.HPPercent(),
		}
		if err := pubsub.Publish(ctx, m.publisher, topics.Logged, m.Name(), payload); err != nil {
			m.logger.Error("Failed to publish logged event", "event_id", ev.ID, "error", err)
		}
	}
	if !res.MatchOver {
		return
	}
	over := topics.MatchOver{Score: s.Score, TimeElapsed: s.TimeElapsed, Payouts: make([]topics.Payout, 0, len(res.Payouts))}
	for _, p := range res.Payouts {
		over.Payouts = append(over.Payouts, topics.Payout{ViewerID: p.ViewerID, Name: p.Name, Amount: p.Amount})
	}
	if err := pubsub.Publish(ctx, m.publisher, topics.Over, m.Name(), over); err != nil {
		m.logger.Error("Failed to publish match over", "error", err)
	}
}
