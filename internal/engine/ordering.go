package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// Move ordering priorities: TT move first, then captures, then quiets
// scored by threat and history, with small bonuses for checks, castling,
// and queen promotions.
const (
	ttMoveScore      = 1 << 30
	killerBase       = 200
	castlingBonus    = 100
	queenPromoBonus  = 10000
	otherPromoMalus  = -10000
	checkBonus       = 150
	historySaturate  = 1 << 16
)

// MoveOrderer tracks the per-search killer and history tables used to
// order moves ahead of each node's search.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
	history [64][64]int32
}

// NewMoveOrderer creates an empty move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and history for a fresh search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] = 0
		}
	}
}

// pieceValueOf returns the centipawn value of a piece type, King priced at
// zero since it is never captured or traded.
func pieceValueOf(pt board.PieceType) int {
	if pt == board.King {
		return 0
	}
	return pieceValues[pt]
}

// ScoreFull scores moves for the main search: captures by victim value,
// quiets by the threat heuristic plus history and killer boosts.
func (mo *MoveOrderer) ScoreFull(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	them := pos.SideToMove.Other()

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m == ttMove {
			scores[i] = ttMoveScore
			continue
		}

		var score int
		switch {
		case m.IsCastling():
			score = castlingBonus
		case m.IsPromotion():
			if m.Promotion() == board.Queen {
				score = queenPromoBonus
			} else {
				score = otherPromoMalus
			}
		case m.IsEnPassant():
			score = pieceValueOf(board.Pawn)
		case m.IsCapture(pos):
			victim := pos.PieceAt(m.To())
			score = pieceValueOf(victim.Type())
		default:
			score = mo.threatScore(pos, m, them)
			score += int(mo.history[m.From()][m.To()])
		}

		if movedGivesCheck(pos, m) {
			score += checkBonus
		}

		score = mo.applyKillerBoost(score, ply, m)
		scores[i] = score
	}

	return scores
}

// ScoreQuiescence scores captures and promotions for qsearch: victim value
// minus a sixteenth of the mover's own value, plus history; non-queen
// promotions are pruned via a large negative score.
func (mo *MoveOrderer) ScoreQuiescence(pos *board.Position, moves *board.MoveList) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.IsPromotion() && m.Promotion() != board.Queen {
			scores[i] = otherPromoMalus
			continue
		}

		mover := pos.PieceAt(m.From())
		var victimValue int
		if m.IsEnPassant() {
			victimValue = pieceValueOf(board.Pawn)
		} else {
			victimValue = pieceValueOf(pos.PieceAt(m.To()).Type())
		}

		score := victimValue - pieceValueOf(mover.Type())/16
		score += int(mo.history[m.From()][m.To()])
		scores[i] = score
	}
	return scores
}

// threatScore implements the "does this quiet move walk into an attacked
// square, or escape one" heuristic: a minor onto a pawn-attacked square
// loses about half a minor, a rook onto a minor-or-pawn-attacked square
// loses about half a rook, a queen onto a rook-or-less attacked square
// loses about half a queen. Moving a threatened piece off such a square
// earns the same bonus back.
func (mo *MoveOrderer) threatScore(pos *board.Position, m board.Move, them board.Color) int {
	pt := pos.PieceAt(m.From()).Type()
	from, to := m.From(), m.To()

	var penalty int
	switch pt {
	case board.Knight, board.Bishop:
		if squareAttackedByPawn(pos, to, them) {
			penalty = pieceValueOf(pt) / 2
		}
	case board.Rook:
		if squareAttackedByMinorOrPawn(pos, to, them) {
			penalty = pieceValueOf(pt) / 2
		}
	case board.Queen:
		if squareAttackedByRookOrLess(pos, to, them) {
			penalty = pieceValueOf(pt) / 2
		}
	}

	bonus := 0
	switch pt {
	case board.Knight, board.Bishop:
		if squareAttackedByPawn(pos, from, them) {
			bonus = pieceValueOf(pt) / 2
		}
	case board.Rook:
		if squareAttackedByMinorOrPawn(pos, from, them) {
			bonus = pieceValueOf(pt) / 2
		}
	case board.Queen:
		if squareAttackedByRookOrLess(pos, from, them) {
			bonus = pieceValueOf(pt) / 2
		}
	}

	return bonus - penalty
}

func squareAttackedByPawn(pos *board.Position, sq board.Square, by board.Color) bool {
	return pos.AttackersByColor(sq, by, pos.AllOccupied)&pos.Pieces[by][board.Pawn] != 0
}

func squareAttackedByMinorOrPawn(pos *board.Position, sq board.Square, by board.Color) bool {
	attackers := pos.AttackersByColor(sq, by, pos.AllOccupied)
	return attackers&(pos.Pieces[by][board.Pawn]|pos.Pieces[by][board.Knight]|pos.Pieces[by][board.Bishop]) != 0
}

func squareAttackedByRookOrLess(pos *board.Position, sq board.Square, by board.Color) bool {
	attackers := pos.AttackersByColor(sq, by, pos.AllOccupied)
	mask := pos.Pieces[by][board.Pawn] | pos.Pieces[by][board.Knight] |
		pos.Pieces[by][board.Bishop] | pos.Pieces[by][board.Rook]
	return attackers&mask != 0
}

// movedGivesCheck reports whether the moving piece attacks the defending
// king from its destination square — a simple piece-to-target check, not
// accounting for discovered checks.
func movedGivesCheck(pos *board.Position, m board.Move) bool {
	mover := pos.PieceAt(m.From())
	if mover == board.NoPiece {
		return false
	}
	them := pos.SideToMove.Other()
	ksq := pos.KingSquare[them]
	to := m.To()

	switch mover.Type() {
	case board.Pawn:
		return board.PawnAttacks(to, pos.SideToMove)&board.SquareBB(ksq) != 0
	case board.Knight:
		return board.KnightAttacks(to)&board.SquareBB(ksq) != 0
	case board.Bishop:
		return board.BishopAttacks(to, pos.AllOccupied)&board.SquareBB(ksq) != 0
	case board.Rook:
		return board.RookAttacks(to, pos.AllOccupied)&board.SquareBB(ksq) != 0
	case board.Queen:
		return board.QueenAttacks(to, pos.AllOccupied)&board.SquareBB(ksq) != 0
	}
	return false
}

// applyKillerBoost raises score to at least 200 minus the killer slot index
// when the move matches one of this ply's killers.
func (mo *MoveOrderer) applyKillerBoost(score, ply int, m board.Move) int {
	if ply >= MaxPly {
		return score
	}
	if m == mo.killers[ply][0] {
		return max(score, killerBase-0)
	}
	if m == mo.killers[ply][1] {
		return max(score, killerBase-1)
	}
	return score
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// PickMove selects the best-scoring remaining move (the earliest one on
// ties) and moves it to position index, shifting the moves in between down
// by one, so equal scores keep their generation order exactly as a stable
// insertion sort would leave them.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		m, sc := moves.Get(best), scores[best]
		for j := best; j > index; j-- {
			moves.Set(j, moves.Get(j-1))
			scores[j] = scores[j-1]
		}
		moves.Set(index, m)
		scores[index] = sc
	}
}

// UpdateKillers records a quiet beta-cutoff move in this ply's two killer
// slots, most recent first, with no duplicate entries.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory applies a saturating update to a move's history score:
// e <- e + s - |s|*e/2^16, so repeated bonuses asymptote rather than
// overflow, and bonus/malus share one saturating table.
func (mo *MoveOrderer) UpdateHistory(m board.Move, bonus int32) {
	e := &mo.history[m.From()][m.To()]
	abs := bonus
	if abs < 0 {
		abs = -abs
	}
	*e = *e + bonus - int32(int64(abs)*int64(*e)/historySaturate)
}

// HistoryBonus returns the depth-scaled bonus applied to the move that
// caused a cutoff, clamped to [1,1024] so deep iterations don't saturate
// the table in a single update. depth is the raw quarter-ply search depth.
func HistoryBonus(depth int) int32 {
	b := int32(depth * depth)
	if b > 1024 {
		b = 1024
	}
	if b < 1 {
		b = 1
	}
	return b
}

// HistoryMalus returns the penalty applied to quiet moves tried before the
// one that cut, a smaller, negative counterpart to HistoryBonus so a single
// cutoff doesn't punish alternatives as hard as it rewards the winner.
func HistoryMalus(bonus int32) int32 {
	m := bonus / 8
	if m < 1 {
		m = 1
	}
	return -m
}
