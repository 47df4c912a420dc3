package bingo

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callAll(t *testing.T, board Board, called *CalledSet, numbers ...int) Positions {
	t.Helper()

	var marked Positions
	for _, n := range numbers {
		var err error
		marked, _, err = MarkNumber(board, called, n)
		require.NoError(t, err)
	}

	return marked
}

func TestMarkNumber(t *testing.T) {
	t.Run("Marks the cell holding the number", func(t *testing.T) {
		// Given: an ordered board and nothing called
		board := orderedBoard()
		called := &CalledSet{}

		// When: 13 is called
		marked, applied, err := MarkNumber(board, called, 13)

		// Then: the center cell is marked and the number is recorded
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, []int{12}, marked.Slice())
		assert.True(t, called.Contains(13))
		assert.Equal(t, 13, called.Last())
	})

	t.Run("Already called number is a no-op", func(t *testing.T) {
		// Given: 7 already called
		board := orderedBoard()
		called := &CalledSet{}
		before := callAll(t, board, called, 7)
		linesBefore := CompletedLines(before)

		// When: 7 is called again
		after, applied, err := MarkNumber(board, called, 7)

		// Then: nothing changes and no error is reported
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, before, after)
		assert.Equal(t, linesBefore, CompletedLines(after))
		assert.Equal(t, 1, called.Len())
	})

	t.Run("Rejects out of range numbers", func(t *testing.T) {
		board := orderedBoard()
		called := &CalledSet{}

		for _, n := range []int{0, 26, -1} {
			// When: an invalid number is called
			_, applied, err := MarkNumber(board, called, n)

			// Then: ErrInvalidNumber is returned and nothing is recorded
			require.ErrorIs(t, err, ErrInvalidNumber)
			assert.False(t, applied)
		}

		assert.Zero(t, called.Len())
	})

	t.Run("Nil called set is an error", func(t *testing.T) {
		var called *CalledSet

		assert.NotPanics(t, func() {
			_, applied, err := MarkNumber(orderedBoard(), called, 13)

			require.ErrorIs(t, err, ErrNilCalledSet)
			assert.False(t, applied)
		})
	})

	t.Run("Does not touch other state", func(t *testing.T) {
		// Given: two independent sessions
		board := orderedBoard()
		first := &CalledSet{}
		second := &CalledSet{}

		// When: a number is called in the first one
		callAll(t, board, first, 1)

		// Then: the second one is untouched
		assert.Zero(t, second.Len())
	})
}

func TestPatternsAt(t *testing.T) {
	t.Run("Center cell lies on four patterns", func(t *testing.T) {
		assert.Equal(t, []int{2, 7, 10, 11}, PatternsAt(12))
	})

	t.Run("Out of range cell", func(t *testing.T) {
		assert.Nil(t, PatternsAt(-1))
		assert.Nil(t, PatternsAt(Cells))
	})

	t.Run("Changing the result leaves evaluation intact", func(t *testing.T) {
		// Given: a caller scribbles over the patterns of the first cell
		patterns := PatternsAt(0)
		for i := range patterns {
			patterns[i] = PatternCount - 1
		}

		// When: the first row is completed
		board := orderedBoard()
		called := &CalledSet{}
		snapshot := Snapshot{}
		for _, n := range []int{2, 3, 4, 5, 1} {
			_, _, err := MarkNumber(board, called, n)
			require.NoError(t, err)
			snapshot = snapshot.Advance(board, n)
		}

		// Then: the row still counts, and the lookup is unchanged
		assert.True(t, snapshot.Lines.Has(0))
		assert.Equal(t, Evaluate(board, called), snapshot)
		assert.Equal(t, []int{0, 5, 10}, PatternsAt(0))
	})
}

func TestCompletedLines(t *testing.T) {
	t.Run("First row in any order completes pattern 0 only", func(t *testing.T) {
		for _, order := range [][]int{{1, 2, 3, 4, 5}, {5, 3, 1, 4, 2}, {2, 4, 5, 1, 3}} {
			// Given: an ordered board
			board := orderedBoard()
			called := &CalledSet{}

			// When: the first row is called
			marked := callAll(t, board, called, order...)
			lines := CompletedLines(marked)

			// Then: only row 0 is complete and the board has not won
			assert.Equal(t, []int{0}, lines.Slice())
			assert.False(t, HasWon(lines))
		}
	})

	t.Run("Columns and diagonals use their fixed indices", func(t *testing.T) {
		board := orderedBoard()

		testCases := []struct {
			name    string
			numbers []int
			pattern int
		}{
			{name: "column 0", numbers: []int{1, 6, 11, 16, 21}, pattern: 5},
			{name: "column 4", numbers: []int{5, 10, 15, 20, 25}, pattern: 9},
			{name: "main diagonal", numbers: []int{1, 7, 13, 19, 25}, pattern: MainDiagonal},
			{name: "anti-diagonal", numbers: []int{5, 9, 13, 17, 21}, pattern: AntiDiagonal},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				called := &CalledSet{}
				lines := CompletedLines(callAll(t, board, called, tc.numbers...))

				assert.Equal(t, []int{tc.pattern}, lines.Slice())
				assert.Equal(t, tc.name, PatternName(tc.pattern))
			})
		}
	})

	t.Run("All rows win and stay won", func(t *testing.T) {
		// Given: an ordered board
		board := orderedBoard()
		called := &CalledSet{}

		// When: 1..25 are called in row order
		var lines Lines
		for n := MinNumber; n <= MaxNumber; n++ {
			marked, _, err := MarkNumber(board, called, n)
			require.NoError(t, err)
			lines = CompletedLines(marked)

			// Then: four full rows alone are not enough
			if n < 21 {
				assert.False(t, HasWon(lines), "won too early at %d", n)
			}
		}

		// Then: all twelve lines are complete
		assert.True(t, lines.Contains(Lines(0b11111)))
		assert.Equal(t, PatternCount, lines.Count())
		assert.True(t, HasWon(lines))
	})

	t.Run("Win arrives on the fifth completed line", func(t *testing.T) {
		board := orderedBoard()
		called := &CalledSet{}

		// Given: rows 0..3 complete
		lines := CompletedLines(callAll(t, board, called, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20))
		assert.Equal(t, 4, lines.Count())
		assert.False(t, HasWon(lines))

		// When: row 4 is finished
		lines = CompletedLines(callAll(t, board, called, 21, 22, 23, 24, 25))

		// Then: the board has won
		assert.True(t, HasWon(lines))
	})
}

func TestSnapshot_Advance(t *testing.T) {
	t.Run("Matches full recomputation for random call orders", func(t *testing.T) {
		src := rand.New(rand.NewPCG(7, 11)) //nolint: gosec // test randomness

		for range 300 {
			// Given: a random board and a random call order
			board := NewBoardFrom(src)
			order := NewBoardFrom(src)

			called := &CalledSet{}
			incremental := Snapshot{}
			var previous Lines

			for _, n := range order {
				// When: numbers are called one by one
				_, applied, err := MarkNumber(board, called, n)
				require.NoError(t, err)
				require.True(t, applied)
				incremental = incremental.Advance(board, n)

				// Then: the incremental snapshot equals a fresh evaluation
				full := Evaluate(board, called)
				require.Equal(t, full, incremental)

				// And: completed lines never shrink
				require.True(t, incremental.Lines.Contains(previous))
				previous = incremental.Lines
			}
		}
	})

	t.Run("Ignores numbers already marked", func(t *testing.T) {
		board := orderedBoard()
		snapshot := Snapshot{}.Advance(board, 3)

		assert.Equal(t, snapshot, snapshot.Advance(board, 3))
	})
}

func TestTie(t *testing.T) {
	// Given: two boards sharing one called set with rows 0..3 complete on both
	first := orderedBoard()
	second := orderedBoard()
	second[20], second[24] = second[24], second[20] // 21 and 25 swap corners

	called := &CalledSet{}
	for n := MinNumber; n <= 20; n++ {
		_, _, err := MarkNumber(first, called, n)
		require.NoError(t, err)
	}

	require.False(t, Evaluate(first, called).Won)
	require.False(t, Evaluate(second, called).Won)

	// When: 21 is called, closing a column and a diagonal on each board
	_, applied, err := MarkNumber(first, called, 21)
	require.NoError(t, err)
	require.True(t, applied)

	// Then: both boards report a win
	assert.True(t, Evaluate(first, called).Won)
	assert.True(t, Evaluate(second, called).Won)
}

func TestLetters(t *testing.T) {
	testCases := []struct {
		lines    Lines
		expected string
	}{
		{lines: 0, expected: ""},
		{lines: 0b1, expected: "B"},
		{lines: 0b101, expected: "BI"},
		{lines: 0b11111, expected: "BINGO"},
		{lines: 0b111111111111, expected: "BINGO"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Letters(tc.lines))
	}
}

func TestSnapshot_JSON(t *testing.T) {
	// Given: a snapshot with the first row marked
	board := orderedBoard()
	called, err := NewCalledSet(1, 2, 3, 4, 5)
	require.NoError(t, err)
	snapshot := Evaluate(board, called)

	// When: it is encoded
	data, err := json.Marshal(snapshot)
	require.NoError(t, err)

	// Then: positions and lines are plain index lists
	assert.JSONEq(t, `{"marked":[0,1,2,3,4],"lines":[0],"won":false}`, string(data))

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, snapshot, decoded)
}

func TestCalledSet_JSON(t *testing.T) {
	t.Run("Keeps call order", func(t *testing.T) {
		called, err := NewCalledSet(9, 3, 17)
		require.NoError(t, err)

		data, err := json.Marshal(called)
		require.NoError(t, err)
		assert.JSONEq(t, `[9,3,17]`, string(data))

		var decoded CalledSet
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, []int{9, 3, 17}, decoded.Numbers())
		assert.True(t, decoded.Contains(17))
	})

	t.Run("Empty set encodes as empty list", func(t *testing.T) {
		data, err := json.Marshal(CalledSet{})
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(data))
	})

	t.Run("Rejects duplicates", func(t *testing.T) {
		var decoded CalledSet
		err := json.Unmarshal([]byte(`[4,4]`), &decoded)
		require.Error(t, err)
	})
}
