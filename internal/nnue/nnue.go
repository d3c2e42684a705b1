package nnue

// Evaluate runs the 3-hidden-layer fixed-point MLP from the side-to-move's
// accumulator and returns a centipawn score clamped to [-20000, 20000].
func Evaluate(net *Network, acc *Accumulator, sideToMove int) int32 {
	bucket := acc.Bucket()
	input := acc.Values[sideToMove]

	var l1 [InputLayer]int32
	for i, v := range input {
		if v > 0 {
			l1[i] = v
		}
	}

	var l2 [Hidden1]int32
	copy(l2[:], net.L2Bias[bucket][:])
	w2 := net.L2Weights[bucket]
	for j := 0; j < Hidden1; j++ {
		var sum int32
		base := j * InputLayer
		for i := 0; i < InputLayer; i++ {
			sum += l1[i] * w2[base+i] >> FixedPoint
		}
		l2[j] = activate(l2[j] + sum)
	}

	var l3 [Hidden2]int32
	copy(l3[:], net.L3Bias[bucket][:])
	w3 := net.L3Weights[bucket]
	for j := 0; j < Hidden2; j++ {
		var sum int32
		base := j * Hidden1
		for i := 0; i < Hidden1; i++ {
			sum += l2[i] * w3[base+i] >> FixedPoint
		}
		l3[j] = activateL3(l3[j] + sum)
	}

	result := net.L4Bias[bucket]
	w4 := net.L4Weights[bucket]
	for i := 0; i < Hidden2; i++ {
		result += l3[i] * w4[i] >> FixedPoint
	}

	return clamp32(result>>FixedPoint, -evalClamp, evalClamp)
}

// Evaluator owns the decoded network plus the two live accumulators; it is
// the "piece-set listener" the board's make/unmake notifies on every place
// and remove (see Position's NNUE hooks).
type Evaluator struct {
	net *Network
	acc Accumulator
}

// NewEvaluator decodes a network from a compressed weight blob. An empty
// blob yields an all-zero network — useful for tests that only exercise
// the accumulator bookkeeping, not real play strength.
func NewEvaluator(blob []byte) *Evaluator {
	e := &Evaluator{net: LoadFromBlob(blob)}
	e.acc.Clear(e.net)
	return e
}

// Clear resets the accumulator to the network bias with no pieces placed.
func (e *Evaluator) Clear() {
	e.acc.Clear(e.net)
}

// Add folds in a piece placed at sq (piece encoded color*6+type).
func (e *Evaluator) Add(piece, sq int) {
	e.acc.Add(e.net, piece, sq)
}

// Remove folds out a piece removed from sq.
func (e *Evaluator) Remove(piece, sq int) {
	e.acc.Remove(e.net, piece, sq)
}

// Evaluate scores the current accumulator state from sideToMove's
// perspective (0 = White, 1 = Black).
func (e *Evaluator) Evaluate(sideToMove int) int32 {
	return Evaluate(e.net, &e.acc, sideToMove)
}

// Snapshot returns a copy of the live accumulator, for search to stash and
// restore around make/unmake without recomputation.
func (e *Evaluator) Snapshot() Accumulator {
	return e.acc
}

// Restore replaces the live accumulator with a previously saved snapshot.
func (e *Evaluator) Restore(snap Accumulator) {
	e.acc = snap
}
