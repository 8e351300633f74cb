// Package pgn recovers opening moves and header values from PGN text.
package pgn

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"github.com/discochess/tally/internal/game"
)

// NotAvailable is returned when no opening moves can be recovered.
const NotAvailable = "N/A"

// OpeningPairs is the number of move pairs kept in an opening prefix.
const OpeningPairs = 3

var (
	commentRe      = regexp.MustCompile(`\{[^}]*\}`)
	clockRe        = regexp.MustCompile(`%clk\s+[0-9:.]+`)
	continuationRe = regexp.MustCompile(`\b\d+\.\.\.`)
	resultRe       = regexp.MustCompile(`(^|\s)(1-0|0-1|1/2-1/2|\*)(\s|$)`)
	nagRe          = regexp.MustCompile(`\$\d+`)
	// A move number, the white move and an optional black move. The black
	// move cannot start with a digit so the next move number is never taken.
	moveRe = regexp.MustCompile(`(\d+)\.\s*([^\s.\d][^\s]*)(?:\s+([^\s\d][^\s]*))?`)
)

type movePair struct {
	number string
	white  string
	black  string
}

// OpeningPrefix returns the first three move pairs of blob in the form
// "1. e4 e5 2. Nf3 Nc6 3. Bb5 a6", or NotAvailable. It never panics.
func OpeningPrefix(blob string) (prefix string) {
	defer func() {
		if recover() != nil {
			prefix = NotAvailable
		}
	}()

	pairs := openingPairs(blob)
	if len(pairs) == 0 {
		return NotAvailable
	}

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.number)
		b.WriteString(". ")
		b.WriteString(p.white)
		if p.black != "" {
			b.WriteByte(' ')
			b.WriteString(p.black)
		}
	}
	return b.String()
}

func openingPairs(blob string) []movePair {
	if strings.TrimSpace(blob) == "" {
		return nil
	}

	text := moveText(blob)
	matches := moveRe.FindAllStringSubmatch(text, OpeningPairs)
	pairs := make([]movePair, 0, len(matches))
	for _, m := range matches {
		p := movePair{number: m[1], white: cleanMove(m[2]), black: cleanMove(m[3])}
		if p.white == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs
}

// moveText strips headers, comments, clocks and markers from a PGN,
// leaving the move list on a single line.
func moveText(blob string) string {
	var b strings.Builder
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		b.WriteString(line)
		b.WriteByte(' ')
	}

	text := commentRe.ReplaceAllString(b.String(), " ")
	text = clockRe.ReplaceAllString(text, " ")
	text = continuationRe.ReplaceAllString(text, " ")
	text = nagRe.ReplaceAllString(text, " ")
	text = resultRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

func cleanMove(m string) string {
	return strings.TrimRight(m, "+#?!")
}

// OpeningFEN replays an opening prefix from the initial position and returns
// the reached position as a four-field FEN. It returns "" when the prefix
// cannot be replayed.
func OpeningFEN(prefix string) string {
	if prefix == "" || prefix == NotAvailable {
		return ""
	}

	g := chess.NewGame()
	for _, tok := range strings.Fields(prefix) {
		if strings.HasSuffix(tok, ".") {
			continue
		}
		if err := g.MoveStr(tok); err != nil {
			return ""
		}
	}
	return normalizeFEN(g.Position().String())
}

// normalizeFEN keeps piece placement, side to move, castling and en passant.
func normalizeFEN(fen string) string {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return fen
	}
	return strings.Join(parts[:4], " ")
}

var accuracyRe = map[game.Color]*regexp.Regexp{
	game.White: regexp.MustCompile(`\[WhiteAccuracy\s+"([^"]+)"\]`),
	game.Black: regexp.MustCompile(`\[BlackAccuracy\s+"([^"]+)"\]`),
}

// Accuracy reads the accuracy header for color, if present and numeric.
func Accuracy(blob string, color game.Color) *float64 {
	re, ok := accuracyRe[color]
	if !ok {
		return nil
	}
	m := re.FindStringSubmatch(blob)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
	if err != nil {
		return nil
	}
	return &v
}
