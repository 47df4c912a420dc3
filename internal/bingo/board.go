// Package bingo evaluates 5x5 Bingo boards against a shared set of called numbers.
//
// Everything here is a pure computation over values owned by the caller. The
// package keeps no state between calls and performs no locking.
package bingo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
)

const (
	Size      = 5
	Cells     = Size * Size
	MinNumber = 1
	MaxNumber = Cells
)

var (
	ErrInvalidNumber = errors.New("number is out of range")
	ErrInvalidBoard  = errors.New("board is not a permutation of 1..25")
)

// Board is a row-major permutation of the numbers 1..25.
type Board [Cells]int

// Source is the randomness NewBoardFrom draws from.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n) //nolint: gosec // game boards, not secrets
}

// NewBoard returns a uniformly shuffled board.
func NewBoard() Board {
	return NewBoardFrom(globalSource{})
}

// NewBoardFrom shuffles 1..25 with Fisher-Yates using src.
func NewBoardFrom(src Source) Board {
	var board Board
	for i := range board {
		board[i] = i + MinNumber
	}

	for i := Cells - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		board[i], board[j] = board[j], board[i]
	}

	return board
}

// ParseBoard validates numbers as a full permutation of 1..25.
func ParseBoard(numbers []int) (Board, error) {
	var board Board

	if len(numbers) != Cells {
		return board, fmt.Errorf("%w: got %d numbers", ErrInvalidBoard, len(numbers))
	}

	var seen uint32
	for i, number := range numbers {
		if err := ValidateNumber(number); err != nil {
			return Board{}, fmt.Errorf("%w: cell %d: %w", ErrInvalidBoard, i, err)
		}

		bit := uint32(1) << (number - MinNumber)
		if seen&bit != 0 {
			return Board{}, fmt.Errorf("%w: duplicate number %d", ErrInvalidBoard, number)
		}
		seen |= bit

		board[i] = number
	}

	return board, nil
}

// ValidateNumber reports ErrInvalidNumber for anything outside 1..25.
func ValidateNumber(number int) error {
	if number < MinNumber || number > MaxNumber {
		return fmt.Errorf("%w: %d", ErrInvalidNumber, number)
	}

	return nil
}

// IndexOf returns the cell holding number, or -1.
func (that Board) IndexOf(number int) int {
	for i, n := range that {
		if n == number {
			return i
		}
	}

	return -1
}

func (that Board) Contains(number int) bool {
	return that.IndexOf(number) >= 0
}

// Remaining lists the board's numbers that are not yet called, in board order.
func (that Board) Remaining(called *CalledSet) []int {
	remaining := make([]int, 0, Cells)
	for _, n := range that {
		if !called.Contains(n) {
			remaining = append(remaining, n)
		}
	}

	return remaining
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var numbers []int
	if err := json.Unmarshal(data, &numbers); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	// a player without a dealt board is stored as the zero value
	if isBlank(numbers) {
		*that = Board{}
		return nil
	}

	board, err := ParseBoard(numbers)
	if err != nil {
		return err
	}

	*that = board

	return nil
}

// IsZero reports whether the board has not been dealt.
func (that Board) IsZero() bool {
	return that == Board{}
}

func isBlank(numbers []int) bool {
	for _, n := range numbers {
		if n != 0 {
			return false
		}
	}

	return true
}
