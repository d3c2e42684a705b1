package nnue

// Accumulator holds both side-relative accumulators (index 0 = White's
// perspective, index 1 = Black's) plus the running material-phase counter
// and queen count that the bucket selection in Evaluate depends on.
type Accumulator struct {
	Values    [2][InputLayer]int32
	GamePhase int32
	Queens    int32
}

// Clear resets the accumulator to the network's bias, with zero material.
// Mirrors clear_accumulator's lazy-init contract: the network itself is
// decoded once, outside the accumulator, on first use.
func (a *Accumulator) Clear(net *Network) {
	a.Values[0] = net.L1Bias
	a.Values[1] = net.L1Bias
	a.GamePhase = 0
	a.Queens = 0
}

// Add folds in a piece placed at sq. piece is encoded color*6+type (the
// same encoding board.Piece uses), matching the original's PST indexing.
func (a *Accumulator) Add(net *Network, piece, sq int) {
	base := piece * 64 * InputLayer
	mirrorPiece := piece + 6
	if piece > 5 {
		mirrorPiece = piece - 6
	}
	mirrorBase := mirrorPiece*64*InputLayer + (sq^56)*InputLayer

	for i := 0; i < InputLayer; i++ {
		a.Values[0][i] += net.PST[base+sq*InputLayer+i]
		a.Values[1][i] += net.PST[mirrorBase+i]
	}

	if piece == 4 || piece == 10 {
		a.Queens++
	}
	a.GamePhase += pstPhase[piece]
}

// Remove is the inverse of Add, called when a piece leaves sq.
func (a *Accumulator) Remove(net *Network, piece, sq int) {
	base := piece * 64 * InputLayer
	mirrorPiece := piece + 6
	if piece > 5 {
		mirrorPiece = piece - 6
	}
	mirrorBase := mirrorPiece*64*InputLayer + (sq^56)*InputLayer

	for i := 0; i < InputLayer; i++ {
		a.Values[0][i] -= net.PST[base+sq*InputLayer+i]
		a.Values[1][i] -= net.PST[mirrorBase+i]
	}

	if piece == 4 || piece == 10 {
		a.Queens--
	}
	a.GamePhase -= pstPhase[piece]
}

// Bucket selects one of the four parameter sets by queen presence and
// material phase, exactly as Evaluate's bucket formula.
func (a *Accumulator) Bucket() int {
	bucket := 0
	if a.Queens > 0 {
		bucket += 2
	}
	if a.GamePhase > 8 {
		bucket++
	}
	return bucket
}
