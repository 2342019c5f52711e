// Package dictionary loads the Czech word-chain dictionary asset and
// implements the explicit diacritic-folding rule spec §4.8/§9 requires
// (not Unicode normalization alone, since ů→ú is a linguistic rule rather
// than a canonical decomposition). Grounded on
// original_source/flask-server/app/socketio_events/dictionary_checker.py
// and word_chain_events.py's remove_diacritics/load_dictionary.
package dictionary

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Dictionary is a read-only, in-memory word set loaded once at startup
// (spec §9). If it failed to load, Lookup is permissive: the engine
// operates in degraded mode and accepts all words, an intentional
// degradation documented in spec §9.
type Dictionary struct {
	words   map[string]bool
	loaded  bool
}

// Load reads a newline-separated word list from path, one word per line,
// with an optional "/flags" suffix (Hunspell-style .dic format) that is
// discarded (mirrors the Python original's `line.strip().split('/')[0]`).
// A missing or unreadable file is not a fatal error: Load returns a
// Dictionary in permissive mode so the engine can still run.
func Load(path string) *Dictionary {
	d := &Dictionary{words: make(map[string]bool)}

	f, err := os.Open(path)
	if err != nil {
		return d // permissive mode: loaded stays false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		word := strings.ToLower(strings.SplitN(line, "/", 2)[0])
		if word != "" {
			d.words[word] = true
		}
	}
	d.loaded = true
	return d
}

// Loaded reports whether a real dictionary file was read. When false,
// Lookup always returns true (permissive mode, spec §9).
func (d *Dictionary) Loaded() bool {
	return d.loaded
}

// Lookup reports whether word exists in the dictionary (case-insensitive).
// Pure: same input always yields the same result (spec §8 round-trip
// property).
func (d *Dictionary) Lookup(word string) bool {
	if !d.loaded {
		return true
	}
	return d.words[strings.ToLower(word)]
}

// Size returns the number of loaded words, for health/startup logging.
func (d *Dictionary) Size() int {
	return len(d.words)
}

// diacriticFold is the explicit Czech character map from spec §4.8. Deliberately
// not delegated to Unicode canonical decomposition: ů→ú is a linguistic
// substitution, not a combining-mark strip.
var diacriticFold = map[rune]rune{
	'á': 'a',
	'é': 'e',
	'ě': 'e',
	'í': 'i',
	'ó': 'o',
	'ý': 'y',
	'ň': 'n',
	'ť': 't',
	'ď': 'd',
	'ů': 'ú',
}

// FoldLetter applies the explicit Czech diacritic map to a single rune.
// Runes not in the map pass through unchanged.
func FoldLetter(r rune) rune {
	if folded, ok := diacriticFold[r]; ok {
		return folded
	}
	return r
}

// FoldWord NFC-normalizes word (so composed and decomposed inputs compare
// equal, per golang.org/x/text/unicode/norm) then applies FoldLetter to
// every rune and lowercases the result.
func FoldWord(word string) string {
	normalized := norm.NFC.String(strings.ToLower(word))
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		b.WriteRune(FoldLetter(r))
	}
	return b.String()
}

// InvalidEndingLetters are letters the folded last-letter rule may never
// hand to the next player (spec §4.8).
var InvalidEndingLetters = map[rune]bool{
	'q': true, 'w': true, 'x': true, 'y': true, 'ů': true,
}

// alphabet is a-z minus InvalidEndingLetters, used when a random
// replacement letter is needed.
var validRandomLetters = func() []rune {
	var out []rune
	for c := 'a'; c <= 'z'; c++ {
		if !InvalidEndingLetters[c] {
			out = append(out, c)
		}
	}
	return out
}()

// ValidRandomLetters returns the pool of letters eligible to replace an
// invalid ending letter.
func ValidRandomLetters() []rune {
	return validRandomLetters
}
