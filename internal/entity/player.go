package entity

import "github.com/rocketscienceinc/bingo-backend/internal/bingo"

const botIDPrefix = "bot-"

type Player struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	GameID   string         `json:"game_id,omitempty"`
	Board    bingo.Board    `json:"board"`
	Progress bingo.Snapshot `json:"progress"`
	Ready    bool           `json:"ready,omitempty"`
	Bot      bool           `json:"bot,omitempty"`
}

func NewBotPlayer(gameID string) *Player {
	return &Player{
		ID:     botIDPrefix + gameID,
		Name:   "Bot",
		GameID: gameID,
		Ready:  true,
		Bot:    true,
	}
}

func (that *Player) IsBot() bool {
	return that.Bot
}

// Letters is the earned part of "BINGO" shown above the player's board.
func (that *Player) Letters() string {
	return that.Progress.Letters()
}

// leaveGame drops everything tied to the current game.
func (that *Player) leaveGame() {
	that.GameID = ""
	that.Board = bingo.Board{}
	that.Progress = bingo.Snapshot{}
	that.Ready = false
}

// Session is the part of the player kept between games: who they are and where they sit.
func (that *Player) Session() *Player {
	return &Player{
		ID:     that.ID,
		Name:   that.Name,
		GameID: that.GameID,
		Bot:    that.Bot,
	}
}
