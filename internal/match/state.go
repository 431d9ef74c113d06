package match

// Status is the lifecycle stage of a match.
type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusPlaying  Status = "PLAYING"
	StatusGameOver Status = "GAME_OVER"
	// StatusVictory is part of the wire vocabulary but no transition reaches it.
	StatusVictory Status = "VICTORY"
)

// BetSide is the outcome a viewer wagers on. The empty side means no bet.
type BetSide string

const (
	BetNone BetSide = ""
	BetWin  BetSide = "WIN"
	BetLose BetSide = "LOSE"
)

// Viewer is a remote participant. Viewers outlive matches; only their bet
// fields are per-match.
type Viewer struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Balance   int     `json:"balance"`
	BetOn     BetSide `json:"betOn,omitempty"`
	BetAmount int     `json:"betAmount,omitempty"`
}

// HasBet reports whether the viewer has a live wager.
func (v Viewer) HasBet() bool {
	return v.BetOn != BetNone
}

// State is the authoritative aggregate owned by the host. Values handed out
// of the host are deep copies; see Clone.
type State struct {
	Status      Status         `json:"status"`
	Avatar      LivingEntity   `json:"player"`
	Hostiles    []LivingEntity `json:"enemies"`
	Projectiles []Projectile   `json:"projectiles"`
	Score       int            `json:"score"`
	// TimeElapsed is in seconds.
	TimeElapsed          float64     `json:"timeElapsed"`
	Viewers              []Viewer    `json:"viewers"`
	Events               []GameEvent `json:"events"`
	DifficultyMultiplier float64     `json:"difficultyMultiplier"`
}

// New returns an idle match with no viewers.
func New(difficulty float64) State {
	if difficulty <= 0 {
		difficulty = 1
	}
	return State{
		Status:               StatusIdle,
		Avatar:               InitialAvatar(),
		Hostiles:             []LivingEntity{},
		Projectiles:          []Projectile{},
		Viewers:              []Viewer{},
		Events:               []GameEvent{},
		DifficultyMultiplier: difficulty,
	}
}

// Playing reports whether the simulation is live.
func (s State) Playing() bool {
	return s.Status == StatusPlaying
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	out := s
	out.Hostiles = append(make([]LivingEntity, 0, len(s.Hostiles)), s.Hostiles...)
	out.Projectiles = append(make([]Projectile, 0, len(s.Projectiles)), s.Projectiles...)
	out.Viewers = append(make([]Viewer, 0, len(s.Viewers)), s.Viewers...)
	out.Events = append(make([]GameEvent, 0, len(s.Events)), s.Events...)
	return out
}

// ViewerIndex returns the position of the viewer with the given id.
func (s State) ViewerIndex(id string) (int, bool) {
	for i, v := range s.Viewers {
		if v.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindViewer returns a copy of the viewer with the given id.
func (s State) FindViewer(id string) (Viewer, bool) {
	if i, ok := s.ViewerIndex(id); ok {
		return s.Viewers[i], true
	}
	return Viewer{}, false
}

// ViewerName returns the viewer's display name, or "Viewer" when unknown.
func (s State) ViewerName(id string) string {
	if v, ok := s.FindViewer(id); ok && v.Name != "" {
		return v.Name
	}
	return "Viewer"
}
