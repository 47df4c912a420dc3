package bingo

import (
	"encoding/json"
	"fmt"
	"math/bits"
)

// Positions is a set of board cell indices.
type Positions uint32

func (that Positions) Has(pos int) bool {
	return pos >= 0 && pos < Cells && that&(1<<pos) != 0
}

func (that Positions) Count() int {
	return bits.OnesCount32(uint32(that))
}

func (that Positions) Slice() []int {
	out := make([]int, 0, that.Count())
	for pos := range Cells {
		if that.Has(pos) {
			out = append(out, pos)
		}
	}

	return out
}

func (that Positions) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.Slice())
}

func (that *Positions) UnmarshalJSON(data []byte) error {
	var indices []int
	if err := json.Unmarshal(data, &indices); err != nil {
		return fmt.Errorf("failed to unmarshal positions: %w", err)
	}

	var positions Positions
	for _, pos := range indices {
		if pos < 0 || pos >= Cells {
			return fmt.Errorf("invalid cell index %d", pos)
		}
		positions |= 1 << pos
	}

	*that = positions

	return nil
}

// Snapshot is the evaluated state of one board. It is a value; callers replace it, never edit it.
type Snapshot struct {
	Marked Positions `json:"marked"`
	Lines  Lines     `json:"lines"`
	Won    bool      `json:"won"`
}

// MarkedPositions recomputes which cells of board hold a called number.
func MarkedPositions(board Board, called *CalledSet) Positions {
	var marked Positions
	for pos, n := range board {
		if called.Contains(n) {
			marked |= 1 << pos
		}
	}

	return marked
}

// CompletedLines tests every pattern against marked, in pattern order.
func CompletedLines(marked Positions) Lines {
	var lines Lines
	for p, mask := range patternMasks {
		if marked&mask == mask {
			lines |= 1 << p
		}
	}

	return lines
}

func HasWon(lines Lines) bool {
	return lines.Count() >= WinThreshold
}

// Evaluate derives a full snapshot of board from called.
func Evaluate(board Board, called *CalledSet) Snapshot {
	marked := MarkedPositions(board, called)
	lines := CompletedLines(marked)

	return Snapshot{
		Marked: marked,
		Lines:  lines,
		Won:    HasWon(lines),
	}
}

// MarkNumber calls number and returns the marked positions of board afterwards.
// An already called number is not applied and is not an error.
func MarkNumber(board Board, called *CalledSet, number int) (Positions, bool, error) {
	if called == nil {
		return 0, false, ErrNilCalledSet
	}

	if err := ValidateNumber(number); err != nil {
		return MarkedPositions(board, called), false, err
	}

	applied := called.add(number)

	return MarkedPositions(board, called), applied, nil
}

// Advance returns the snapshot after number is marked on board, re-testing only the
// patterns through that cell. The result equals Evaluate on the grown called set.
func (that Snapshot) Advance(board Board, number int) Snapshot {
	pos := board.IndexOf(number)
	if pos < 0 || that.Marked.Has(pos) {
		return that
	}

	next := that
	next.Marked |= 1 << pos

	for _, p := range patternsByPos[pos] {
		mask := patternMasks[p]
		if next.Marked&mask == mask {
			next.Lines |= 1 << p
		}
	}

	next.Won = HasWon(next.Lines)

	return next
}

// Letters is the earned part of "BINGO" for the snapshot.
func (that Snapshot) Letters() string {
	return Letters(that.Lines)
}
