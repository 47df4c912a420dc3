package apperror

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrGameFinished       = errors.New("game is already finished")
	ErrGameIsNotStarted   = errors.New("game is not started")
	ErrGameAlreadyStarted = errors.New("game is already started")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrNoActiveGames      = errors.New("no active games")
	ErrGameAlreadyExists  = errors.New("game already exists")
	ErrGameFull           = errors.New("game is full")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrPlayersNotReady    = errors.New("not all players are ready")
	ErrNotHost            = errors.New("only the host can do this")
	ErrPlayerNotInGame    = errors.New("player is not in this game")
	ErrNumberNotOnBoard   = errors.New("number is not on your board")
)
