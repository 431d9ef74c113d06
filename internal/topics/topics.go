// Package topics declares every bus topic of the arena together with its
// payload type.
package topics

import (
	"encoding/json"

	"github.com/nfrund/chaosarena/internal/pubsub"
)

// EventLogged is published for each narrative event the host commits.
type EventLogged struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"`
	Score     int    `json:"score"`
	HPPercent int    `json:"hpPercent"`
}

// Payout is one settlement credit.
type Payout struct {
	ViewerID string `json:"viewerId"`
	Name     string `json:"name"`
	Amount   int    `json:"amount"`
}

// MatchOver is published once per transition into GAME_OVER.
type MatchOver struct {
	Score       int      `json:"score"`
	TimeElapsed float64  `json:"timeElapsed"`
	Payouts     []Payout `json:"payouts"`
}

// Connection reports a viewer socket opening or closing.
type Connection struct {
	ConnID string `json:"connId"`
	Open   int    `json:"open"`
}

var (
	// ViewerMessage carries raw wire messages received from viewer sockets.
	ViewerMessage = pubsub.NewEvent[json.RawMessage]("arena.viewer.message", "Raw protocol message received from a viewer connection")

	// ViewerConnected fires when a viewer socket is registered.
	ViewerConnected = pubsub.NewEvent[Connection]("arena.viewer.connected", "A viewer connection joined the broadcast set")

	// ViewerDisconnected fires when a viewer socket leaves the broadcast set.
	ViewerDisconnected = pubsub.NewEvent[Connection]("arena.viewer.disconnected", "A viewer connection left the broadcast set")

	// Logged carries committed narrative events; commentary listens here.
	Logged = pubsub.NewEvent[EventLogged]("arena.event.logged", "Narrative event appended to the match log")

	// Over fires when the avatar falls and bets are settled.
	Over = pubsub.NewEvent[MatchOver]("arena.match.over", "Match reached GAME_OVER and bets were settled")
)
