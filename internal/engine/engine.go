// Package engine owns every piece of process-wide search state — the
// board, transposition table, NNUE accumulators, move-ordering tables,
// and game history — behind one value, mutated only by the search driver
// and its synchronous callees. There is no worker pool and no shared
// memory between goroutines; search is cooperative, not preemptive.
package engine

import (
	"fmt"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/logging"
	"github.com/hailam/chessplay/internal/nnue"
)

var log = logging.New("engine")

// Engine is the single owning value for a game: the board (with its
// make/unmake and repetition history), the transposition table, the NNUE
// evaluator wired as the board's piece-set listener, and the searcher
// that ties them together.
type Engine struct {
	pos     *board.Position
	tt      *TranspositionTable
	eval    *nnue.Evaluator
	search  *Searcher
	history *GameHistory
}

// NewEngine creates an engine with a transposition table of the given
// size in megabytes and a zero-weight NNUE evaluator; call LoadNNUE to
// replace it with real weights.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	eval := nnue.NewEvaluator(nil)

	e := &Engine{
		tt:      tt,
		eval:    eval,
		history: NewGameHistory(),
	}
	e.search = NewSearcher(tt, eval)
	e.SetPositionFromFEN(board.StartFEN)

	log.Infof("engine ready: %d clusters, tt=%dMB", tt.Clusters(), ttSizeMB)
	return e
}

// LoadNNUE replaces the evaluator's network from a compressed weight blob
// file and re-seeds its accumulator from the current board.
func (e *Engine) LoadNNUE(path string) error {
	blob, err := nnue.LoadBlobFile(path)
	if err != nil {
		return err
	}
	e.eval = nnue.NewEvaluator(blob)
	e.search = NewSearcher(e.tt, e.eval)
	e.pos.SetListener(e.eval)
	return nil
}

// SetPositionFromFEN resets the board from FEN, clears the transposition
// table and move-ordering history, and rebuilds the NNUE accumulator from
// scratch — the "set_position_from_fen" core operation.
func (e *Engine) SetPositionFromFEN(fen string) error {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		log.Errorf("ZOBRIST ERROR: bad FEN %q: %v", fen, err)
		return err
	}
	e.pos = pos
	e.pos.SetListener(e.eval)
	e.tt.Clear()
	e.history.Reset()
	e.history.Push(e.pos.Hash, false)
	return nil
}

// ApplyExternalMove applies an opponent move (already legal-checked by
// the caller's UCI parse) to the board and records it in game history.
func (e *Engine) ApplyExternalMove(m board.Move) {
	undo := e.pos.MakeMove(m)
	e.history.Push(e.pos.Hash, undo.Irreversible)
}

// Position exposes the live board for callers that need to inspect it
// (FEN export, SAN rendering, the external move parser).
func (e *Engine) Position() *board.Position {
	return e.pos
}

// SearchWithBudget runs iterative-deepening search for up to the given
// duration and returns the chosen move plus search stats.
func (e *Engine) SearchWithBudget(budget time.Duration) (board.Move, SearchStats) {
	move, stats := e.search.SearchWithBudget(e.pos, budget, false, e.history)
	return move, stats
}

// PonderUntilInput searches indefinitely (up to the ponder budget) until
// either time runs out or the supplied probe reports input is ready.
func (e *Engine) PonderUntilInput(pollInput func() bool) (board.Move, SearchStats) {
	e.search.SetPonderInputProbe(pollInput)
	move, stats := e.search.SearchWithBudget(e.pos, PonderBudget, true, e.history)
	e.search.SetPonderInputProbe(nil)
	return move, stats
}

// PlayChosenMove applies the engine's own chosen move to its board,
// compacts game history, matching the command loop's documented
// apply-then-ponder sequence.
func (e *Engine) PlayChosenMove(m board.Move) {
	e.ApplyExternalMove(m)
	e.history.Compact()
}

// TTClusters reports the transposition table's fixed cluster capacity,
// emitted as MTT<n> at startup.
func (e *Engine) TTClusters() int {
	return e.tt.Clusters()
}

// FormatMove renders a move the way the external protocol expects:
// castling as the king's actual destination square, not the internal
// "captures own rook" encoding.
func FormatMove(m board.Move) string {
	return m.String()
}

// String renders the board for diagnostics.
func (e *Engine) String() string {
	return fmt.Sprintf("%s", e.pos)
}
