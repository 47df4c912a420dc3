package entity

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/bingo"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	ResultWin  = "win"
	ResultLose = "lose"
	ResultTie  = "tie"
)

const (
	PublicType  = "public"
	PrivateType = "private"
	WithBotType = "bot"
)

const (
	MinPlayers        = 2
	DefaultMaxPlayers = 8
)

var (
	ErrUnknownGameStatus = errors.New("unknown game status")
	ErrUnknownGameType   = errors.New("unknown game type")
)

func ValidateGameType(gameType string) error {
	switch gameType {
	case PublicType, PrivateType, WithBotType:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
	}
}

// Game is one Bingo session. It owns the called numbers shared by every board in it.
type Game struct {
	ID         string          `json:"id"`
	HostID     string          `json:"host_id,omitempty"`
	Type       string          `json:"type,omitempty"`
	Status     string          `json:"status"`
	MaxPlayers int             `json:"max_players,omitempty"`
	Players    []*Player       `json:"players,omitempty"`
	Called     bingo.CalledSet `json:"called"`
	Turn       string          `json:"player_turn,omitempty"`
	Winners    []string        `json:"winners,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewGame(id, gameType string, maxPlayers int) *Game {
	if maxPlayers < MinPlayers {
		maxPlayers = DefaultMaxPlayers
	}

	if gameType == WithBotType {
		maxPlayers = MinPlayers
	}

	return &Game{
		ID:         id,
		Type:       gameType,
		Status:     StatusWaiting,
		MaxPlayers: maxPlayers,
		CreatedAt:  time.Now().UTC(),
	}
}

// AddPlayer seats player and deals a fresh board. The first player becomes host.
func (that *Game) AddPlayer(player *Player) error {
	if that.PlayerByID(player.ID) != nil {
		return nil
	}

	if !that.IsWaiting() {
		return apperror.ErrGameAlreadyStarted
	}

	if len(that.Players) >= that.MaxPlayers {
		return fmt.Errorf("%w: %d players", apperror.ErrGameFull, that.MaxPlayers)
	}

	player.GameID = that.ID
	player.Board = bingo.NewBoard()
	player.Progress = bingo.Snapshot{}
	player.Ready = player.IsBot()

	if that.HostID == "" {
		that.HostID = player.ID
	}

	that.Players = append(that.Players, player)

	return nil
}

// RemovePlayer takes a player out of the game. An ongoing game left with fewer
// than two players ends without a winner.
func (that *Game) RemovePlayer(playerID string) (*Player, error) {
	idx := slices.IndexFunc(that.Players, func(p *Player) bool { return p.ID == playerID })
	if idx < 0 {
		return nil, apperror.ErrPlayerNotInGame
	}

	player := that.Players[idx]

	if that.Turn == playerID {
		that.Turn = that.nextPlayerID(playerID)
	}

	that.Players = slices.Delete(that.Players, idx, idx+1)
	player.leaveGame()

	if that.HostID == playerID {
		that.HostID = ""
		for _, p := range that.Players {
			if !p.IsBot() {
				that.HostID = p.ID
				break
			}
		}
	}

	if that.IsOngoing() && (len(that.Players) < MinPlayers || that.humanCount() == 0) {
		that.finish(nil)
	}

	return player, nil
}

func (that *Game) SetReady(playerID string, ready bool) error {
	if !that.IsWaiting() {
		return apperror.ErrGameAlreadyStarted
	}

	player := that.PlayerByID(playerID)
	if player == nil {
		return apperror.ErrPlayerNotInGame
	}

	player.Ready = ready || player.IsBot()

	return nil
}

// CanStart reports whether at least two players are seated and all of them are ready.
func (that *Game) CanStart() bool {
	return that.checkStart() == nil
}

func (that *Game) checkStart() error {
	if len(that.Players) < MinPlayers {
		return apperror.ErrNotEnoughPlayers
	}

	for _, p := range that.Players {
		if !p.Ready {
			return apperror.ErrPlayersNotReady
		}
	}

	return nil
}

// Start moves a waiting game in progress. The host calls first.
func (that *Game) Start() error {
	if !that.IsWaiting() {
		return apperror.ErrGameAlreadyStarted
	}

	if err := that.checkStart(); err != nil {
		return err
	}

	that.Called = bingo.CalledSet{}
	that.Winners = nil
	that.Refresh()

	that.Status = StatusOngoing
	that.Turn = that.firstTurn()

	return nil
}

// Restart deals new boards to everyone and clears the called numbers.
// Bot games continue immediately, rooms go back to waiting for ready players.
func (that *Game) Restart() error {
	that.Called = bingo.CalledSet{}
	that.Winners = nil
	that.Turn = ""

	for _, p := range that.Players {
		p.Board = bingo.NewBoard()
		p.Progress = bingo.Snapshot{}
		p.Ready = p.IsBot()
	}

	that.Status = StatusWaiting

	if that.IsWithBot() {
		for _, p := range that.Players {
			p.Ready = true
		}

		if err := that.Start(); err != nil {
			return fmt.Errorf("failed to start bot game again: %w", err)
		}
	}

	return nil
}

// CallNumber calls number on behalf of the player whose turn it is and marks it on
// every board. It returns false without error when number was called before.
func (that *Game) CallNumber(playerID string, number int) (bool, error) {
	if err := that.ConfirmOngoingState(); err != nil {
		return false, err
	}

	caller := that.PlayerByID(playerID)
	if caller == nil {
		return false, apperror.ErrPlayerNotInGame
	}

	if that.Turn != playerID {
		return false, apperror.ErrNotYourTurn
	}

	if err := bingo.ValidateNumber(number); err != nil {
		return false, err
	}

	if !caller.Board.Contains(number) {
		return false, fmt.Errorf("%w: %d", apperror.ErrNumberNotOnBoard, number)
	}

	_, applied, err := bingo.MarkNumber(caller.Board, &that.Called, number)
	if err != nil || !applied {
		return false, err
	}

	var winners []string
	for _, p := range that.Players {
		p.Progress = p.Progress.Advance(p.Board, number)
		if p.Progress.Won {
			winners = append(winners, p.ID)
		}
	}

	if len(winners) > 0 {
		that.finish(winners)
		return true, nil
	}

	that.Turn = that.nextPlayerID(playerID)

	return true, nil
}

// PassTurn hands the turn on without calling a number.
func (that *Game) PassTurn(playerID string) error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	if that.Turn != playerID {
		return apperror.ErrNotYourTurn
	}

	that.Turn = that.nextPlayerID(playerID)

	return nil
}

// Refresh re-evaluates every board from the called numbers.
func (that *Game) Refresh() {
	for _, p := range that.Players {
		p.Progress = bingo.Evaluate(p.Board, &that.Called)
	}
}

// ResultFor reports win, lose or tie for a player of a finished game.
func (that *Game) ResultFor(playerID string) string {
	if !that.IsFinished() || len(that.Winners) == 0 {
		return ""
	}

	if !slices.Contains(that.Winners, playerID) {
		return ResultLose
	}

	if len(that.Winners) > 1 {
		return ResultTie
	}

	return ResultWin
}

func (that *Game) IsTie() bool {
	return that.IsFinished() && len(that.Winners) > 1
}

func (that *Game) PlayerByID(id string) *Player {
	for _, p := range that.Players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func (that *Game) BotPlayer() *Player {
	for _, p := range that.Players {
		if p.IsBot() {
			return p
		}
	}

	return nil
}

// Masked returns a copy of the game as seen by viewerID: other boards stay hidden until the game ends.
// Their marked cells go too, since those and the called numbers give the board away.
// Completed lines stay visible.
func (that *Game) Masked(viewerID string) *Game {
	masked := *that
	masked.Called = *that.Called.Clone()
	masked.Winners = slices.Clone(that.Winners)
	masked.Players = make([]*Player, 0, len(that.Players))

	for _, p := range that.Players {
		view := *p
		if p.ID != viewerID && !that.IsFinished() {
			view.Board = bingo.Board{}
			view.Progress.Marked = 0
		}
		masked.Players = append(masked.Players, &view)
	}

	return &masked
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsPublic() bool {
	return that.Type == PublicType
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

func (that *Game) finish(winners []string) {
	that.Winners = winners
	that.Status = StatusFinished
	that.Turn = ""
}

// firstTurn is the host, or the first human when the host seat is empty.
func (that *Game) firstTurn() string {
	if p := that.PlayerByID(that.HostID); p != nil {
		return p.ID
	}

	for _, p := range that.Players {
		if !p.IsBot() {
			return p.ID
		}
	}

	return that.Players[0].ID
}

func (that *Game) nextPlayerID(currentID string) string {
	if len(that.Players) == 0 {
		return ""
	}

	idx := slices.IndexFunc(that.Players, func(p *Player) bool { return p.ID == currentID })

	next := that.Players[(idx+1)%len(that.Players)]
	if next.ID == currentID {
		return ""
	}

	return next.ID
}

func (that *Game) humanCount() int {
	count := 0
	for _, p := range that.Players {
		if !p.IsBot() {
			count++
		}
	}

	return count
}
