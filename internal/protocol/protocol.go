// Package protocol defines the messages exchanged between host and viewers.
// Every message is a flat JSON object discriminated by its "type" field.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/chaosarena/internal/match"
)

// Type discriminates wire messages.
type Type string

const (
	TypeJoin      Type = "VIEWER_JOIN"
	TypePurchase  Type = "VIEWER_ACTION_PURCHASE"
	TypeBet       Type = "VIEWER_ACTION_BET"
	TypeSyncState Type = "SYNC_STATE"
)

// BroadcastHz is the snapshot rate viewers can expect.
const BroadcastHz = 20

var ErrUnknownType = errors.New("unknown message type")

// Message is implemented by every wire message.
type Message interface {
	MessageType() Type
}

// Join is the first message a viewer sends after the channel opens.
type Join struct {
	Name string `json:"name" validate:"max=32"`
	ID   string `json:"id" validate:"required,max=64"`
}

// Purchase asks the host to buy an item. Cost is what the viewer saw; the
// host charges the catalog price.
type Purchase struct {
	ViewerID string `json:"viewerId" validate:"required"`
	ItemID   string `json:"itemId" validate:"required"`
	Cost     int    `json:"cost" validate:"gte=0"`
}

// Bet wagers on the outcome of the current match.
type Bet struct {
	ViewerID string        `json:"viewerId" validate:"required"`
	BetType  match.BetSide `json:"betType" validate:"required,oneof=WIN LOSE"`
	Amount   int           `json:"amount" validate:"gt=0"`
}

// SyncState carries a full snapshot. Seq increases by one per broadcast.
type SyncState struct {
	Seq   uint64      `json:"seq"`
	State match.State `json:"state"`
}

func (Join) MessageType() Type      { return TypeJoin }
func (Purchase) MessageType() Type  { return TypePurchase }
func (Bet) MessageType() Type       { return TypeBet }
func (SyncState) MessageType() Type { return TypeSyncState }

var validate = validator.New()

type header struct {
	Type Type `json:"type"`
}

// Encode serializes msg with its type discriminator.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("encode nil message")
	}
	switch m := msg.(type) {
	case Join:
		return json.Marshal(struct {
			header
			Join
		}{header{TypeJoin}, m})
	case Purchase:
		return json.Marshal(struct {
			header
			Purchase
		}{header{TypePurchase}, m})
	case Bet:
		return json.Marshal(struct {
			header
			Bet
		}{header{TypeBet}, m})
	case SyncState:
		return json.Marshal(struct {
			header
			SyncState
		}{header{TypeSyncState}, m})
	default:
		return nil, fmt.Errorf("encode %T: %w", msg, ErrUnknownType)
	}
}

// Decode parses one message and validates its fields.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, errors.New("decode empty message")
	}
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	switch h.Type {
	case TypeJoin:
		return decodeAs[Join](data)
	case TypePurchase:
		return decodeAs[Purchase](data)
	case TypeBet:
		return decodeAs[Bet](data)
	case TypeSyncState:
		var m SyncState
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", h.Type, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("decode %q: %w", h.Type, ErrUnknownType)
	}
}

func decodeAs[T Message](data []byte) (Message, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.MessageType(), err)
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", m.MessageType(), err)
	}
	return m, nil
}
