package engine

// Centipawn piece values, used only for move-ordering heuristics (MVV-style
// capture scoring, the threat heuristic, qsearch delta scoring). Position
// evaluation itself comes entirely from the NNUE network.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}
