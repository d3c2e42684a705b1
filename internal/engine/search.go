package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/nnue"
)

// Search constants. Depth is tracked in quarter-plies: the iterative
// deepening loop advances by 4 per iteration, each representing one real
// ply, so fractional reductions and extensions can land between plies.
const (
	Infinity  = 32000
	MateScore = 32000
	MaxPly    = 64
	FullPly   = 4
)

// PVTable stores the principal variation accumulated during search.
type PVTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

// SearchStats reports counters from a completed or interrupted search.
type SearchStats struct {
	Nodes    uint64
	Depth    int
	Value    int
	Time     time.Duration
	HashFull int
}

// Searcher runs a single-threaded iterative-deepening negamax search
// against one board, one transposition table, and one NNUE evaluator.
// All of its state — node count, PV, killers/history, per-ply static-eval
// stack — is owned here; nothing is shared across concurrent searches.
type Searcher struct {
	pos  *board.Position
	tt   *TranspositionTable
	eval *nnue.Evaluator
	mo   *MoveOrderer
	tm   *TimeManager

	nodes    uint64
	stopFlag atomic.Bool
	pondering bool
	pollInput func() bool

	pv PVTable

	undoStack   [MaxPly + 1]board.UndoFrame
	staticEvals [MaxPly + 1]int
	prevNullMove [MaxPly + 1]bool

	// searchHashes[ply+1] / searchIrreversible[ply+1] record the position
	// reached after the move made at `ply`, keyed the same way as
	// repHashes so isRepetition can scan across both uniformly.
	searchHashes       [MaxPly + 1]uint64
	searchIrreversible [MaxPly + 1]bool

	// Repetition history: game positions played so far, seeded before
	// each search, plus the positions this search itself makes.
	repHashes        []uint64
	repIrreversible  []bool

	rootPVLifted bool
}

// NewSearcher creates a searcher bound to a transposition table and an
// NNUE evaluator; both are expected to outlive many searches.
func NewSearcher(tt *TranspositionTable, eval *nnue.Evaluator) *Searcher {
	return &Searcher{
		tt:   tt,
		eval: eval,
		mo:   NewMoveOrderer(),
		tm:   NewTimeManager(),
	}
}

// SetPonderInputProbe installs the non-blocking "is input ready?" check
// used only while pondering.
func (s *Searcher) SetPonderInputProbe(probe func() bool) {
	s.pollInput = probe
}

// Stop signals an in-progress search to return without writing TT.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Nodes reports the number of nodes visited by the most recent search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// SearchWithBudget runs iterative deepening to a real-time budget, optionally
// in ponder mode where input-readiness also stops the search besides the
// clock. It returns the best move found and stats describing the search.
func (s *Searcher) SearchWithBudget(pos *board.Position, budget time.Duration, ponder bool, history *GameHistory) (board.Move, SearchStats) {
	s.pos = pos
	s.nodes = 0
	s.stopFlag.Store(false)
	s.pondering = ponder
	s.mo.Clear()
	s.rootPVLifted = false
	s.repHashes = history.Hashes()
	s.repIrreversible = history.Irreversible()

	s.tt.AdvanceGeneration()
	s.tm.Start(budget)

	var lastValue int
	var bestMove board.Move

	for depth := FullPly; depth <= MaxPly*FullPly; depth += FullPly {
		value := s.negamax(depth, 0, -Infinity, Infinity)
		if s.stopFlag.Load() {
			break
		}
		lastValue = value
		if s.pv.length[0] > 0 {
			bestMove = s.pv.moves[0][0]
		}
	}

	stats := SearchStats{
		Nodes:    s.nodes,
		Value:    lastValue,
		Time:     s.tm.Elapsed(),
		HashFull: s.tt.HashFull(),
	}
	return bestMove, stats
}

// shouldStop is the periodic cooperative check: every 4096 nodes, consult
// the clock and, while pondering, a non-blocking input-ready probe.
func (s *Searcher) shouldStop() bool {
	if s.nodes&(nodeCheckPeriod-1) != 0 {
		return false
	}
	if s.pondering && s.pollInput != nil && s.pollInput() {
		return true
	}
	return s.tm.Expired()
}

// isDraw applies the three non-checkmate draw rules checked at every
// non-root node: the 50-move rule, the engine's own insufficient-material
// rule, and repetition scanned backward over reversible plies only.
func (s *Searcher) isDraw(ply int) bool {
	if s.pos.HalfMoveClock >= 100 {
		return true
	}
	if s.pos.IsInsufficientMaterial() {
		return true
	}
	return s.isRepetition(ply)
}

// isRepetition scans the combined game-history-plus-in-search hash stack
// backward in steps of two (positions with the same side to move), never
// crossing the most recent irreversible move.
func (s *Searcher) isRepetition(ply int) bool {
	total := len(s.repHashes) + ply
	if total < 2 {
		return false
	}
	current := s.pos.Hash
	for i := total - 3; i >= 0; i -= 2 {
		if s.frameIrreversible(i + 1) {
			break
		}
		if s.frameHash(i) == current {
			return true
		}
	}
	return false
}

func (s *Searcher) frameHash(i int) uint64 {
	if i < len(s.repHashes) {
		return s.repHashes[i]
	}
	return s.searchHashes[i-len(s.repHashes)+1]
}

func (s *Searcher) frameIrreversible(i int) bool {
	if i < len(s.repIrreversible) {
		return s.repIrreversible[i]
	}
	return s.searchIrreversible[i-len(s.repIrreversible)+1]
}

// pushMove makes a move during search, recording its resulting hash and
// irreversibility for isRepetition, and folding the NNUE accumulator
// change through the board's piece-listener hook (already wired in
// Position's mutators — nothing extra to do here).
func (s *Searcher) pushMove(m board.Move, ply int) board.UndoFrame {
	undo := s.pos.MakeMove(m)
	s.undoStack[ply+1] = undo
	s.searchHashes[ply+1] = s.pos.Hash
	s.searchIrreversible[ply+1] = undo.Irreversible
	return undo
}

func (s *Searcher) popMove(undo board.UndoFrame) {
	s.pos.UnmakeMove(undo)
}

// mateDistance shifts a near-mate score one ply closer to zero on its way
// up the tree, so mates further from the root always score lower than
// mates closer to it.
func mateDistance(score int) int {
	if score >= MateScore-1000 {
		return score - 1
	}
	if score <= -MateScore+1000 {
		return score + 1
	}
	return score
}

// negamax is the alpha-beta search driver described in the search section:
// TT probe/cutoff, static eval, null-move pruning, move ordering, late-move
// reduction, check extension, and TT/killers/history bookkeeping.
func (s *Searcher) negamax(depth, ply int, alpha, beta int) int {
	if s.shouldStop() {
		s.stopFlag.Store(true)
		return 0
	}
	s.nodes++
	s.pv.length[ply] = ply

	if ply > 0 && s.isDraw(ply) {
		return 0
	}

	ref := s.tt.Probe(s.pos.Hash)
	ttMove := board.NoMove
	if ref.Found {
		ttMove = ref.Move()
	}

	if ply >= MaxPly {
		if ref.Found {
			if score, usable := s.usableTTScore(ref, ply, alpha, beta); usable {
				return score
			}
		}
		return s.evaluate()
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	inCheck := s.pos.InCheck()

	// TT cutoff.
	if ref.Found && ref.Depth()*FullPly >= depth {
		if score, usable := s.usableTTScore(ref, ply, alpha, beta); usable && (ply > 0 || !s.pondering) {
			if ply == 0 && !s.rootPVLifted {
				s.pv.moves[0][0] = ttMove
				s.pv.length[0] = 1
				s.rootPVLifted = true
			}
			return score
		}
	}

	staticEval := s.staticEvalAt(ref, ply)
	s.staticEvals[ply] = staticEval

	// Null-move pruning.
	if !inCheck && ply > 1 && staticEval >= beta &&
		!s.prevNullMove[ply] && s.pos.HasNonPawnMaterial() {
		nullUndo := s.pos.MakeNullMove()
		s.prevNullMove[ply+1] = true
		reduced := depth - depth/3 - 4
		score := -s.negamax(reduced, ply+1, -beta, -beta+1)
		s.prevNullMove[ply+1] = false
		s.pos.UnmakeNullMove(nullUndo)
		if s.stopFlag.Load() {
			return 0
		}
		if score >= beta {
			return score
		}
	}

	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	scores := s.mo.ScoreFull(s.pos, moves, ply, ttMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	bound := TTUpper
	legalCount := 0

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		reduction := FullPly
		if inCheck {
			reduction = 1
		}

		moveScore := scores[i]
		applyLMR := (ply > 0 || s.pv.length[0] > 0) && depth > 11 && moveScore < 0
		if applyLMR {
			undo := s.pushMove(m, ply)
			legalCount++
			probe := -s.negamax(depth-8, ply+1, -alpha-1, -alpha)
			if probe <= alpha {
				s.popMove(undo)
				if s.stopFlag.Load() {
					return 0
				}
				continue
			}
			score := mateDistance(-s.negamax(depth-reduction, ply+1, -beta, -alpha))
			s.popMove(undo)
			if s.stopFlag.Load() {
				return 0
			}
			bestScore, bestMove, alpha, bound = s.considerScore(score, m, ply, bestScore, bestMove, alpha, bound)
			if alpha >= beta {
				s.onBetaCutoff(moves, scores, i, m, depth, ply, bestMove, staticEval, bestScore)
				return bestScore
			}
			continue
		}

		undo := s.pushMove(m, ply)
		legalCount++
		score := mateDistance(-s.negamax(depth-reduction, ply+1, -beta, -alpha))
		s.popMove(undo)
		if s.stopFlag.Load() {
			return 0
		}

		bestScore, bestMove, alpha, bound = s.considerScore(score, m, ply, bestScore, bestMove, alpha, bound)
		if alpha >= beta {
			s.onBetaCutoff(moves, scores, i, m, depth, ply, bestMove, staticEval, bestScore)
			return bestScore
		}
	}

	if legalCount == 0 {
		return bestScore
	}

	ref.Write(s.pos.Hash, bestMove, staticEval, AdjustScoreToTT(bestScore, ply), depth/FullPly, bound)
	s.updateHistoryAll(moves, scores, bestMove, depth, bound == TTExact)

	return bestScore
}

// considerScore folds one child's score into the running best, updating
// alpha and the PV when it improves on the current best.
func (s *Searcher) considerScore(score int, m board.Move, ply int, bestScore int, bestMove board.Move, alpha int, bound TTBound) (int, board.Move, int, TTBound) {
	if score > bestScore {
		bestScore = score
		bestMove = m
		if score > alpha {
			alpha = score
			bound = TTExact
			s.pv.moves[ply][ply] = m
			for j := ply + 1; j < s.pv.length[ply+1]; j++ {
				s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
			}
			s.pv.length[ply] = s.pv.length[ply+1]
			if ply == 0 {
				s.rootPVLifted = true
			}
		}
	}
	return bestScore, bestMove, alpha, bound
}

// onBetaCutoff writes the fail-high TT entry and bumps killer/history
// tables: a bonus for the move that cut, a symmetric malus for every
// quiet move tried before it.
func (s *Searcher) onBetaCutoff(moves *board.MoveList, scores []int, cutIndex int, cutMove board.Move, depth, ply int, bestMove board.Move, staticEval, bestScore int) {
	ref := s.tt.Probe(s.pos.Hash)
	ref.Write(s.pos.Hash, bestMove, staticEval, AdjustScoreToTT(bestScore, ply), depth/FullPly, TTLower)
	if !cutMove.IsCapture(s.pos) {
		s.mo.UpdateKillers(cutMove, ply)
	}
	bonus := HistoryBonus(depth)
	malus := HistoryMalus(bonus)
	for i := 0; i <= cutIndex; i++ {
		m := moves.Get(i)
		if m.IsCapture(s.pos) || m.IsPromotion() {
			continue
		}
		if m == cutMove {
			s.mo.UpdateHistory(m, bonus)
		} else {
			s.mo.UpdateHistory(m, malus)
		}
	}
}

// updateHistoryAll applies the non-cutoff history update at the end of a
// fully-searched node: a bonus for the best move if it was quiet, a
// symmetric malus for the other quiets tried.
func (s *Searcher) updateHistoryAll(moves *board.MoveList, scores []int, bestMove board.Move, depth int, bestWasExact bool) {
	if !bestWasExact || bestMove == board.NoMove || bestMove.IsCapture(s.pos) || bestMove.IsPromotion() {
		return
	}
	bonus := HistoryBonus(depth)
	malus := HistoryMalus(bonus)
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.IsCapture(s.pos) || m.IsPromotion() {
			continue
		}
		if m == bestMove {
			s.mo.UpdateHistory(m, bonus)
		} else {
			s.mo.UpdateHistory(m, malus)
		}
	}
}

// usableTTScore reports whether a found TT entry's score can stand in for a
// fresh search given the current alpha/beta window: an exact score always
// qualifies, a lower bound only if it already meets beta, an upper bound
// only if it already fails alpha.
func (s *Searcher) usableTTScore(ref TTRef, ply, alpha, beta int) (int, bool) {
	score := AdjustScoreFromTT(ref.SearchEval(), ply)
	switch ref.Bound() {
	case TTExact:
		return score, true
	case TTLower:
		return score, score >= beta
	case TTUpper:
		return score, score <= alpha
	}
	return score, false
}

// staticEvalAt returns the TT's stored static eval if present, else a
// fresh NNUE evaluation, saved on the per-ply stack for child nodes.
func (s *Searcher) staticEvalAt(ref TTRef, ply int) int {
	if ref.Found {
		return ref.StaticEval()
	}
	return s.evaluate()
}

// evaluate scores the current position from the side to move's
// perspective via the incrementally maintained NNUE accumulator.
func (s *Searcher) evaluate() int {
	side := 0
	if s.pos.SideToMove == board.Black {
		side = 1
	}
	return int(s.eval.Evaluate(side))
}

// quiescence extends the search through captures (and check evasions when
// in check) until the position is "quiet", avoiding the horizon effect.
func (s *Searcher) quiescence(ply int, alpha, beta int) int {
	if s.shouldStop() {
		s.stopFlag.Store(true)
		return 0
	}
	s.nodes++

	if ply >= MaxPly {
		return s.evaluate()
	}

	inCheck := s.pos.InCheck()
	var bestValue int
	if !inCheck {
		standPat := s.evaluate()
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
		bestValue = standPat
	} else {
		bestValue = -MateScore + ply
	}

	var moves *board.MoveList
	if inCheck {
		moves = s.pos.GenerateLegalMoves()
	} else {
		moves = s.pos.GenerateCaptures()
	}

	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return alpha
	}

	scores := s.mo.ScoreQuiescence(s.pos, moves)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)
		if !inCheck && m.IsPromotion() && m.Promotion() != board.Queen {
			continue
		}

		undo := s.pushMove(m, ply)
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.popMove(undo)

		if s.stopFlag.Load() {
			return 0
		}
		if score > bestValue {
			bestValue = score
			if score > alpha {
				alpha = score
			}
		}
		if score >= beta {
			return score
		}
	}

	if inCheck && bestValue == -MateScore+ply {
		return -MateScore + ply
	}
	return bestValue
}

// GetPV returns the principal variation found by the most recent search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}
