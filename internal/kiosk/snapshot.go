package kiosk

import "time"

type VariantView struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Selected     bool   `json:"selected"`
}

type PlayerView struct {
	WristbandID string `json:"wristband_id"`
	Name        string `json:"name"`
	TimeLeft    string `json:"time_left"`
	Score       string `json:"score"`
	Reward      string `json:"reward"`
}

type HighScoresView struct {
	Today      string `json:"today"`
	Last90Days string `json:"last_90_days"`
	AllTime    string `json:"all_time"`
}

type Snapshot struct {
	SessionID       string         `json:"session_id"`
	GameCode        string         `json:"game_code"`
	GameName        string         `json:"game_name,omitempty"`
	GameDescription string         `json:"game_description,omitempty"`
	State           State          `json:"state"`
	Status          RunStatus      `json:"status"`
	StartEnabled    bool           `json:"start_enabled"`
	Variants        []VariantView  `json:"variants"`
	Players         []PlayerView   `json:"players"`
	MaxPlayers      int            `json:"max_players"`
	HighScores      HighScoresView `json:"high_scores"`
	Error           string         `json:"error,omitempty"`
	ReloadAt        *time.Time     `json:"reload_at,omitempty"`
	Reload          bool           `json:"reload,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:    s.ID,
		GameCode:     s.GameCode,
		State:        s.State,
		Status:       s.Status,
		StartEnabled: s.StartEnabled(),
		Variants:     make([]VariantView, 0),
		Players:      make([]PlayerView, 0, len(s.Scans)),
		MaxPlayers:   s.maxPlayers,
		HighScores: HighScoresView{
			Today:      s.HighScores.HighestToday.OrZero(),
			Last90Days: s.HighScores.Highest90Days.OrZero(),
			AllTime:    s.HighScores.HighestAllTime.OrZero(),
		},
		Error: s.LoadError,
	}
	if s.Game != nil {
		snap.GameName = s.Game.GameName
		snap.GameDescription = s.Game.GameDescription
		for _, variant := range s.Game.Variants {
			snap.Variants = append(snap.Variants, VariantView{
				ID:           variant.ID,
				Name:         variant.Name,
				Instructions: variant.Instructions,
				Selected:     s.Variant != nil && s.Variant.ID == variant.ID,
			})
		}
	}
	for _, scan := range s.Scans {
		name := ""
		if scan.Summary.Player != nil {
			name = scan.Summary.Player.Name()
		}
		snap.Players = append(snap.Players, PlayerView{
			WristbandID: scan.WristbandID,
			Name:        name,
			TimeLeft:    scan.Summary.TimeLeft.String(),
			Score:       scan.Summary.TotalScore.String(),
			Reward:      scan.Summary.Reward.String(),
		})
	}
	if !s.ReloadAt.IsZero() {
		at := s.ReloadAt
		snap.ReloadAt = &at
	}
	return snap
}

// SelectedVariant returns the selected variant view, if any.
func (s Snapshot) SelectedVariant() (VariantView, bool) {
	for _, variant := range s.Variants {
		if variant.Selected {
			return variant, true
		}
	}
	return VariantView{}, false
}
