package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessplay/internal/board"
)

func TestSearchStartingPosition(t *testing.T) {
	eng := NewEngine(4)
	move, stats := eng.SearchWithBudget(80 * time.Millisecond)

	assert.NotEqual(t, board.NoMove, move)
	assert.Positive(t, stats.Nodes)
}

func TestFoolsMate(t *testing.T) {
	eng := NewEngine(4)
	require.NoError(t, eng.SetPositionFromFEN("rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2"))

	move, _ := eng.SearchWithBudget(200 * time.Millisecond)
	assert.Equal(t, "d8h4", FormatMove(move))
}

func TestBackRankMateInOne(t *testing.T) {
	eng := NewEngine(4)
	require.NoError(t, eng.SetPositionFromFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1"))

	move, _ := eng.SearchWithBudget(200 * time.Millisecond)
	assert.Equal(t, "a1a8", FormatMove(move))
}

func TestCastlingThroughAttackForbidden(t *testing.T) {
	eng := NewEngine(4)
	require.NoError(t, eng.SetPositionFromFEN("r3k2r/8/8/8/8/4b3/8/R3K2R w KQkq - 0 1"))

	move, _ := eng.SearchWithBudget(150 * time.Millisecond)
	assert.NotEqual(t, "e1g1", FormatMove(move), "castling through an attacked square must never be chosen")
}

func TestThreefoldRepetitionDrawScore(t *testing.T) {
	eng := NewEngine(4)
	require.NoError(t, eng.SetPositionFromFEN("4k3/8/8/8/8/8/8/R3K3 w - - 0 1"))

	shuffle := []string{"e1d1", "e8d8", "d1e1", "d8e8", "e1d1", "e8d8", "d1e1", "d8e8"}
	for _, s := range shuffle {
		m, err := board.ParseMove(s, eng.Position())
		require.NoError(t, err)
		eng.ApplyExternalMove(m)
	}

	eng.search.repHashes = eng.history.Hashes()
	eng.search.repIrreversible = eng.history.Irreversible()
	assert.True(t, eng.search.isDraw(0))
}

func TestPonderInterruptReturnsPromptly(t *testing.T) {
	eng := NewEngine(4)
	signaled := false
	calls := 0

	_, stats := eng.PonderUntilInput(func() bool {
		calls++
		if calls > 2 {
			signaled = true
			return true
		}
		return false
	})

	assert.True(t, signaled)
	assert.GreaterOrEqual(t, stats.Nodes, uint64(0))
}

func TestSetPositionFromFENRejectsGarbage(t *testing.T) {
	eng := NewEngine(4)
	err := eng.SetPositionFromFEN("not a fen")
	assert.Error(t, err)
}

func TestApplyExternalMoveUpdatesHistory(t *testing.T) {
	eng := NewEngine(4)
	m, err := board.ParseMove("e2e4", eng.Position())
	require.NoError(t, err)

	eng.ApplyExternalMove(m)
	assert.Equal(t, board.E4, m.To())
	assert.Len(t, eng.history.Hashes(), 2)
}
