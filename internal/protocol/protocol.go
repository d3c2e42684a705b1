// Package protocol implements the engine's command channel: a byte-oriented
// line protocol read from stdin, one opcode byte per line, with a small set
// of status lines emitted to stdout after each search.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/logging"
)

var log = logging.New("protocol")

// Version is emitted as the startup banner, M<version>.
const Version = "1"

const maxLineBytes = 128

// Loop owns the stdin/stdout command channel around one Engine.
type Loop struct {
	eng *engine.Engine
	in  *bufio.Reader
	out io.Writer
}

// New creates a command loop reading from stdin and writing to stdout.
func New(eng *engine.Engine) *Loop {
	return &Loop{
		eng: eng,
		in:  bufio.NewReaderSize(os.Stdin, maxLineBytes*2),
		out: os.Stdout,
	}
}

// Run reads and dispatches opcodes until a quit command or stdin closes.
func (l *Loop) Run() {
	fmt.Fprintf(l.out, "M%s\n", Version)
	fmt.Fprintf(l.out, "MTT%d\n", l.eng.TTClusters())

	for {
		line, err := l.readLine()
		if err != nil {
			return
		}
		if line == "" {
			continue
		}

		switch line[0] {
		case 'q':
			return
		case 'f':
			l.handleFEN(line[1:])
		default:
			if line[0] >= 32 {
				l.handleMove(line[0], line[1:])
			}
		}
	}
}

func (l *Loop) readLine() (string, error) {
	line, err := l.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// handleFEN resets the board from FEN, per section 6's "f<FEN>" opcode:
// clear TT and history, then search with a fixed 500ms budget.
func (l *Loop) handleFEN(fen string) {
	if err := l.eng.SetPositionFromFEN(fen); err != nil {
		log.Errorf("ZOBRIST ERROR: %v", err)
		return
	}
	l.searchAndReply(engine.FENResetBudget)
}

// handleMove applies the opponent's move then searches with budget
// (opcode - 32) * 20ms, per section 6's "<byte c>!<uci-move>" opcode.
func (l *Loop) handleMove(opcode byte, rest string) {
	moveStr := strings.TrimPrefix(rest, "!")
	m, err := board.ParseMove(moveStr, l.eng.Position())
	if err != nil {
		if strings.Contains(err.Error(), "promotion") {
			fmt.Fprintln(l.out, "Bad move")
			return
		}
		fmt.Fprintln(os.Stderr, "Bad move")
		os.Exit(1)
	}
	if !l.eng.Position().GenerateLegalMoves().Contains(m) {
		fmt.Fprintln(os.Stderr, "Bad move")
		os.Exit(1)
	}

	l.eng.ApplyExternalMove(m)
	l.searchAndReply(engine.MoveBudget(opcode))
}

// searchAndReply runs a timed search, emits its stats and chosen move, plays
// the move on the engine's own board, then ponders until stdinReady reports
// buffered input or the ponder budget runs out.
func (l *Loop) searchAndReply(budget time.Duration) {
	move, stats := l.eng.SearchWithBudget(budget)

	fmt.Fprintf(l.out, "Mtime=%d\n", stats.Time.Milliseconds())
	fmt.Fprintf(l.out, "Mnodes=%d\n", stats.Nodes)
	fmt.Fprintf(l.out, "Mvalue=%d\n", stats.Value)
	fmt.Fprintln(l.out, engine.FormatMove(move))

	l.eng.PlayChosenMove(move)

	_, ponderStats := l.eng.PonderUntilInput(l.stdinReady)
	fmt.Fprintf(l.out, "Mponder_nodes=%d\n", ponderStats.Nodes)
}

// stdinReady reports whether bytes are already held in the loop's read
// buffer, without blocking. Input still waiting in the OS pipe, not yet
// read into that buffer, is not detected.
func (l *Loop) stdinReady() bool {
	return l.in.Buffered() > 0
}
