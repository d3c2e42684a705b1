package engine

import (
	"math/bits"

	"github.com/hailam/chessplay/internal/board"
)

// TTBound identifies which kind of score bound a transposition entry holds.
// Zero value EMPTY doubles as "slot never written".
type TTBound uint8

const (
	TTEmpty TTBound = iota
	TTLower
	TTUpper
	TTExact
)

const (
	entriesPerCluster = 5
	ttNoValue         = -32768
)

// ttEntry is a 12-byte transposition slot: 32-bit hash verifier, 16-bit
// move, two 16-bit evals, 8-bit depth, and a generation+bound byte (high
// 6 bits generation, low 2 bits bound).
type ttEntry struct {
	hash         uint32
	move         board.Move
	staticEval   int16
	searchEval   int16
	depth        uint8
	genAndBound  uint8
}

// ttCluster holds 5 entries plus 4 bytes padding, keeping each cluster
// aligned to a 64-byte cache line.
type ttCluster struct {
	entries [entriesPerCluster]ttEntry
	_       [4]byte
}

// TranspositionTable is an open-addressed, cluster-associative cache of
// search results. Indexing by the high bits of a 128-bit product keeps
// lookups a fast, branch-free modulo over a non-power-of-two cluster count.
type TranspositionTable struct {
	clusters []ttCluster
	gen      uint8
}

// NewTranspositionTable allocates a table sized in megabytes, rounding down
// to a whole number of 64-byte clusters.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	numClusters := (uint64(sizeMB) * 1024 * 1024) / 64
	if numClusters == 0 {
		numClusters = 1
	}
	return &TranspositionTable{clusters: make([]ttCluster, numClusters)}
}

func (tt *TranspositionTable) clusterFor(hash uint64) *ttCluster {
	hi, _ := bits.Mul64(uint64(len(tt.clusters)), hash)
	return &tt.clusters[hi]
}

func ttAge(e *ttEntry, gen uint8) uint8 {
	return (64 + gen>>2 - (e.genAndBound >> 2)) & 63
}

// TTRef is a found-or-replacement handle into a cluster slot, mirroring the
// teacher's get_TTEntry two-phase probe (exact match, else worst-score slot).
type TTRef struct {
	entry *ttEntry
	gen   uint8
	Found bool
}

// Probe looks up hash, returning a reference to either the matching entry
// or the best eviction candidate in its cluster.
func (tt *TranspositionTable) Probe(hash uint64) TTRef {
	cluster := tt.clusterFor(hash)
	verifier := uint32(hash)

	for i := range cluster.entries {
		e := &cluster.entries[i]
		if e.genAndBound != 0 && e.hash == verifier {
			e.genAndBound = tt.gen | (e.genAndBound & 3)
			return TTRef{entry: e, gen: tt.gen, Found: true}
		}
	}

	best := &cluster.entries[0]
	bestScore := int(best.depth) - 8*int(ttAge(best, tt.gen))
	for i := 1; i < entriesPerCluster; i++ {
		e := &cluster.entries[i]
		score := int(e.depth) - 8*int(ttAge(e, tt.gen))
		if score < bestScore {
			best = e
			bestScore = score
		}
	}
	return TTRef{entry: best, gen: tt.gen, Found: false}
}

// Bound reports the ref's stored bound kind (TTEmpty if never written).
func (r TTRef) Bound() TTBound { return TTBound(r.entry.genAndBound & 3) }

// Move returns the ref's stored best move.
func (r TTRef) Move() board.Move { return r.entry.move }

// Depth returns the ref's stored depth.
func (r TTRef) Depth() int { return int(r.entry.depth) }

// SearchEval returns the ref's stored search-window score (0 for a slot
// never written).
func (r TTRef) SearchEval() int { return int(r.entry.searchEval) }

// StaticEval returns the ref's stored static evaluation (0 for a slot never
// written).
func (r TTRef) StaticEval() int { return int(r.entry.staticEval) }

// Write stores a result into the ref's slot, keeping the existing move
// when the incoming move is NO_MOVE and hashes match, and overwriting the
// rest only when hashes differ, the bound is EXACT, or depth does not
// regress.
func (r TTRef) Write(hash uint64, move board.Move, staticEval, searchEval int, depth int, bound TTBound) {
	e := r.entry
	verifier := uint32(hash)

	if verifier != e.hash || move != board.NoMove {
		e.move = move
	}

	if verifier != e.hash || bound == TTExact || depth >= int(e.depth) {
		e.hash = verifier
		e.staticEval = int16(clampInt(staticEval, -32768, 32767))
		e.searchEval = int16(clampInt(searchEval, -32768, 32767))
		e.depth = uint8(clampInt(depth, 0, 255))
		e.genAndBound = uint8(bound) | r.gen
	}
}

// AdvanceGeneration bumps the table's generation, used to age out stale
// entries between searches without clearing the table. gen is kept in the
// high 6 bits of the byte, so one generation step adds 4.
func (tt *TranspositionTable) AdvanceGeneration() {
	tt.gen += 4
}

// Clear wipes every slot in the table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.clusters {
		tt.clusters[i] = ttCluster{}
	}
	tt.gen = 0
}

// Clusters reports the table's fixed cluster capacity (emitted as MTT).
func (tt *TranspositionTable) Clusters() int {
	return len(tt.clusters)
}

// HashFull returns the permille of sampled slots holding a current-
// generation entry.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000 / entriesPerCluster
	if sample > len(tt.clusters) {
		sample = len(tt.clusters)
	}
	used := 0
	total := 0
	for i := 0; i < sample; i++ {
		for j := range tt.clusters[i].entries {
			e := &tt.clusters[i].entries[j]
			total++
			if e.genAndBound != 0 && ttAge(e, tt.gen) == 0 {
				used++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return (used * 1000) / total
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AdjustScoreFromTT converts a stored mate score back to a ply-relative
// one when lifting it out of the table at the current ply.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT converts a ply-relative mate score to the table's
// root-relative storage form.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
