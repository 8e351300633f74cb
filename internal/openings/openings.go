// Package openings maps an opening move prefix to a coarse family label.
package openings

import (
	"strings"

	"github.com/discochess/tally/internal/pgn"
)

// Labels returned outside the named families.
const (
	Unknown      = "Unknown"
	OtherOpening = "Other Opening"
)

// rule matches a lowercased opening prefix.
type rule struct {
	label string
	match func(moves string) bool
}

func contains(s string) func(string) bool {
	return func(moves string) bool { return strings.Contains(moves, s) }
}

func startsWith(s string) func(string) bool {
	return func(moves string) bool { return strings.HasPrefix(moves, s) }
}

func all(fs ...func(string) bool) func(string) bool {
	return func(moves string) bool {
		for _, f := range fs {
			if !f(moves) {
				return false
			}
		}
		return true
	}
}

// rules is evaluated in order; the first match wins.
var rules = []rule{
	{"Italian Game / Spanish Opening", all(contains("e4 e5"), contains("nf3 nc6"))},
	{"Italian Game", all(contains("e4 e5"), contains("bc4"))},
	{"Spanish Opening (Ruy Lopez)", all(contains("e4 e5"), contains("bb5"))},
	{"King's Pawn Game", contains("e4 e5")},
	{"Sicilian Defense", contains("e4 c5")},
	{"French Defense", contains("e4 e6")},
	{"Caro-Kann Defense", contains("e4 c6")},
	{"Queen's Pawn Game", contains("d4 d5")},
	{"English Opening / Queen's Indian", all(contains("d4 nf6"), contains("c4"))},
	{"Indian Defense", contains("d4 nf6")},
	{"Reti Opening", startsWith("1. nf3")},
	{"English Opening", startsWith("1. c4")},
	{"Bird's Opening", startsWith("1. f4")},
}

// Classify returns the family label for an opening prefix. Matching is
// case-insensitive substring matching over the rendered prefix.
func Classify(prefix string) string {
	moves := strings.ToLower(prefix)
	for _, r := range rules {
		if r.match(moves) {
			return r.label
		}
	}
	return OtherOpening
}

// Label returns Unknown for a missing prefix and Classify otherwise.
func Label(prefix string) string {
	if prefix == "" || prefix == pgn.NotAvailable {
		return Unknown
	}
	return Classify(prefix)
}
