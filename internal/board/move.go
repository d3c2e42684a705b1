package board

import "fmt"

// Move encodes a chess move in 16 bits:
// bits 0-5:   target square (0-63)
// bits 6-11:  source square (0-63)
// bits 12-13: promotion piece (0=Knight, 1=Bishop, 2=Rook, 3=Queen)
// bits 14-15: type (0=normal, 1=promotion, 2=en passant, 3=castling)
//
// A castling move is encoded as the king capturing its own rook: From is the
// king's origin square, To is the origin square of the rook granting that
// castling right. This lets the encoding carry non-standard rook files even
// though the external FEN/UCI surface only ever produces standard ones.
type Move uint16

// Move type flags (top two bits).
const (
	FlagNormal    uint16 = 0 << 14
	FlagPromotion uint16 = 1 << 14
	FlagEnPassant uint16 = 2 << 14
	FlagCastling  uint16 = 3 << 14
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

// NewMove creates a normal move.
func NewMove(from, to Square) Move {
	return Move(to) | Move(from)<<6
}

// NewPromotion creates a promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	promoIdx := promo - Knight
	return Move(to) | Move(from)<<6 | Move(promoIdx)<<12 | Move(FlagPromotion)
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return Move(to) | Move(from)<<6 | Move(FlagEnPassant)
}

// NewCastling creates a castling move encoded as "king captures own rook".
// kingFrom is the king's current square; rookFrom is the origin square of
// the rook granting the castling right being exercised.
func NewCastling(kingFrom, rookFrom Square) Move {
	return Move(rookFrom) | Move(kingFrom)<<6 | Move(FlagCastling)
}

// From returns the origin square (the king's square for a castling move).
func (m Move) From() Square {
	return Square((m >> 6) & 0x3F)
}

// To returns the target square (the rook's origin square for a castling move).
func (m Move) To() Square {
	return Square(m & 0x3F)
}

// Flag returns the move type flag.
func (m Move) Flag() uint16 {
	return uint16(m) & 0xC000
}

// Promotion returns the promotion piece type (only valid if IsPromotion()).
func (m Move) Promotion() PieceType {
	return PieceType((m>>12)&3) + Knight
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Flag() == FlagPromotion
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastling
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// CastlingSide returns whether a castling move targets the king- or
// queen-side rook, based on whether the rook's origin file is east or west
// of the king's origin file.
func (m Move) CastlingSide() CastlingSide {
	if m.To().File() > m.From().File() {
		return KingSide
	}
	return QueenSide
}

// IsCapture returns true if this move captures a piece. Castling moves are
// never reported as captures even though they encode the rook's square as
// the move's target.
func (m Move) IsCapture(pos *Position) bool {
	if m.IsCastling() {
		return false
	}
	if m.IsEnPassant() {
		return true
	}
	return !pos.IsEmpty(m.To())
}

// IsQuiet returns true if this is not a capture or promotion.
func (m Move) IsQuiet(pos *Position) bool {
	return !m.IsCapture(pos) && !m.IsPromotion()
}

// String returns the UCI-visible form of the move. For castling moves this
// is the king's actual landing square, not the encoded rook square.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	if m.IsCastling() {
		us := White
		if m.From().Rank() == 7 {
			us = Black
		}
		kingTo := CastlingKingSquare(m.CastlingSide(), us)
		return m.From().String() + kingTo.String()
	}

	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		promoChars := []byte{'n', 'b', 'r', 'q'}
		s += string(promoChars[m.Promotion()-Knight])
	}
	return s
}

// ParseMove parses a UCI format move string against the given position,
// translating castling and en passant into their internal encodings.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()

	// A king moving exactly two files is external-interface castling;
	// translate to the "captures own rook" internal encoding using the
	// standard corner rook (the external move surface assumes standard
	// rook files).
	if pt == King && abs(int(to)-int(from)) == 2 {
		us := piece.Color()
		side := QueenSide
		if to.File() > from.File() {
			side = KingSide
		}
		rookFrom := StandardRookSquare(side, us)
		return NewCastling(from, rookFrom), nil
	}

	if pt == Pawn && to == pos.EnPassant {
		return NewEnPassant(from, to), nil
	}

	return NewMove(from, to), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList { return &MoveList{} }

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int { return ml.count }

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list.
func (ml *MoveList) Clear() { ml.count = 0 }

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move { return ml.moves[:ml.count] }

// Filter selects which pseudo-legal/legal moves GenerateMoves should produce.
type Filter int

const (
	FilterAll Filter = iota
	FilterCaptures
	FilterQuiet
)

// UndoFrame is one entry of the board's bounded undo ring (section 3:
// "a bounded ring of prior states").
type UndoFrame struct {
	Hash           uint64
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Captured       Piece
	Move           Move
	Irreversible   bool
}
