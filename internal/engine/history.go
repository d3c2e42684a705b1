package engine

// historyFrame is one played position's repetition-relevant state: its
// hash, and whether the move that produced it was irreversible (a pawn
// move, a capture, or castling — none of which can recur).
type historyFrame struct {
	hash         uint64
	irreversible bool
}

// maxHistoryFrames is the initial capacity of the game-history slice: deep
// enough for search recursion plus game history. It is not a hard bound;
// Push appends past it, and only Compact and Reset shorten the history.
const maxHistoryFrames = 192

// GameHistory tracks played positions since the last irreversible move,
// for threefold-repetition detection. It is distinct from the per-search
// undo stack: it only ever grows by moves actually applied to the board,
// never by moves tried and unmade inside search.
type GameHistory struct {
	frames []historyFrame
}

// NewGameHistory creates an empty history.
func NewGameHistory() *GameHistory {
	return &GameHistory{frames: make([]historyFrame, 0, maxHistoryFrames)}
}

// Push records a newly played position.
func (h *GameHistory) Push(hash uint64, irreversible bool) {
	h.frames = append(h.frames, historyFrame{hash: hash, irreversible: irreversible})
}

// Reset clears all recorded positions (used on a fresh FEN load).
func (h *GameHistory) Reset() {
	h.frames = h.frames[:0]
}

// Compact drops every frame before the most recent irreversible move,
// since no earlier position can ever recur from here on.
func (h *GameHistory) Compact() {
	for i := len(h.frames) - 1; i >= 0; i-- {
		if h.frames[i].irreversible {
			h.frames = append(h.frames[:0], h.frames[i:]...)
			return
		}
	}
}

// Hashes returns the recorded hashes in order, for seeding a search's
// repetition stack.
func (h *GameHistory) Hashes() []uint64 {
	out := make([]uint64, len(h.frames))
	for i, f := range h.frames {
		out[i] = f.hash
	}
	return out
}

// Irreversible mirrors Hashes, returning the irreversibility flags.
func (h *GameHistory) Irreversible() []bool {
	out := make([]bool, len(h.frames))
	for i, f := range h.frames {
		out[i] = f.irreversible
	}
	return out
}
