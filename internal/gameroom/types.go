package gameroom

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Loose decodes a JSON string, number or null into its text form.
type Loose string

func (l *Loose) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*l = Loose(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return err
	}
	*l = Loose(number.String())
	return nil
}

func (l Loose) String() string {
	return string(l)
}

type Variant struct {
	ID           int    `json:"ID"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

type Game struct {
	ID              int       `json:"ID"`
	GameCode        string    `json:"gameCode"`
	GameName        string    `json:"gameName"`
	GameDescription string    `json:"gameDescription"`
	IPAddress       string    `json:"IpAddress"`
	LocalPort       Loose     `json:"LocalPort"`
	Variants        []Variant `json:"variants"`
}

// Address is the network location of the game controller.
type Address struct {
	IP   string
	Port string
}

func (g Game) Address() (Address, bool) {
	addr := Address{IP: strings.TrimSpace(g.IPAddress), Port: strings.TrimSpace(g.LocalPort.String())}
	return addr, addr.IP != "" && addr.Port != ""
}

func (g Game) Variant(id int) (Variant, bool) {
	for _, variant := range g.Variants {
		if variant.ID == id {
			return variant, true
		}
	}
	return Variant{}, false
}

type Player struct {
	PlayerID  int    `json:"playerID"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
}

func (p Player) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type PlayerSummary struct {
	Player     *Player `json:"player"`
	TimeLeft   Loose   `json:"timeleft"`
	TotalScore Loose   `json:"totalScore"`
	Reward     Loose   `json:"reward"`
}

type GameStatus struct {
	Status string `json:"status"`
}

type StartResult struct {
	Message string `json:"message"`
}

type HighScores struct {
	HighestToday   Loose `json:"highestToday"`
	Highest90Days  Loose `json:"highest90Days"`
	HighestAllTime Loose `json:"highestAllTime"`
}

// OrZero renders an absent score as "0".
func (l Loose) OrZero() string {
	if l == "" {
		return "0"
	}
	return string(l)
}
