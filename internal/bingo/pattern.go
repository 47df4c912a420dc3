package bingo

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"slices"
)

const (
	PatternCount = 2*Size + 2

	// WinThreshold is the number of completed lines that wins a board.
	WinThreshold = 5

	MainDiagonal = 2 * Size
	AntiDiagonal = 2*Size + 1
)

const letters = "BINGO"

// Patterns is ordered: rows 0..4, columns 5..9, main diagonal 10, anti-diagonal 11.
// Clients key line drawing off these indices, so the order must not change.
var Patterns = [PatternCount][Size]int{
	{0, 1, 2, 3, 4},
	{5, 6, 7, 8, 9},
	{10, 11, 12, 13, 14},
	{15, 16, 17, 18, 19},
	{20, 21, 22, 23, 24},
	{0, 5, 10, 15, 20},
	{1, 6, 11, 16, 21},
	{2, 7, 12, 17, 22},
	{3, 8, 13, 18, 23},
	{4, 9, 14, 19, 24},
	{0, 6, 12, 18, 24},
	{4, 8, 12, 16, 20},
}

var (
	patternMasks  [PatternCount]Positions
	patternsByPos [Cells][]int
)

func init() {
	for p, pattern := range Patterns {
		for _, pos := range pattern {
			patternMasks[p] |= 1 << pos
			patternsByPos[pos] = append(patternsByPos[pos], p)
		}
	}
}

// PatternsAt lists the patterns that pass through a cell. The slice is the caller's own.
func PatternsAt(pos int) []int {
	if pos < 0 || pos >= Cells {
		return nil
	}

	return slices.Clone(patternsByPos[pos])
}

func PatternName(p int) string {
	switch {
	case p >= 0 && p < Size:
		return fmt.Sprintf("row %d", p)
	case p >= Size && p < 2*Size:
		return fmt.Sprintf("column %d", p-Size)
	case p == MainDiagonal:
		return "main diagonal"
	case p == AntiDiagonal:
		return "anti-diagonal"
	default:
		return "unknown"
	}
}

// Lines is a set of pattern indices.
type Lines uint16

func (that Lines) Has(p int) bool {
	return p >= 0 && p < PatternCount && that&(1<<p) != 0
}

func (that Lines) Count() int {
	return bits.OnesCount16(uint16(that))
}

// Slice returns the pattern indices in ascending order.
func (that Lines) Slice() []int {
	out := make([]int, 0, that.Count())
	for p := range PatternCount {
		if that.Has(p) {
			out = append(out, p)
		}
	}

	return out
}

// Contains reports whether every line in other is also in that.
func (that Lines) Contains(other Lines) bool {
	return that&other == other
}

func (that Lines) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.Slice())
}

func (that *Lines) UnmarshalJSON(data []byte) error {
	var indices []int
	if err := json.Unmarshal(data, &indices); err != nil {
		return fmt.Errorf("failed to unmarshal lines: %w", err)
	}

	var lines Lines
	for _, p := range indices {
		if p < 0 || p >= PatternCount {
			return fmt.Errorf("invalid pattern index %d", p)
		}
		lines |= 1 << p
	}

	*that = lines

	return nil
}

// Letters returns the part of "BINGO" earned so far, one letter per completed line.
func Letters(lines Lines) string {
	return letters[:min(lines.Count(), len(letters))]
}
