// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mention encodes and decodes entity mentions embedded in message text.
package mention

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/cocreateai/cocreate-chat/internal/model"
)

// =============================================================================
// TOKEN GRAMMAR
// =============================================================================

// tokenPattern matches @[name](type:id). The type group also excludes
// brackets and parentheses so a malformed token cannot swallow a later one.
var tokenPattern = regexp.MustCompile(`@\[([^\]]+)\]\(([^:()\[\]]+):([^)]+)\)`)

// Encode builds the durable token for an entity: @[name](type:id).
func Encode(name string, typ model.EntityType, id string) string {
	var sb strings.Builder
	sb.Grow(len(name) + len(typ) + len(id) + 6)
	sb.WriteString("@[")
	sb.WriteString(name)
	sb.WriteString("](")
	sb.WriteString(string(typ))
	sb.WriteByte(':')
	sb.WriteString(id)
	sb.WriteByte(')')
	return sb.String()
}

// ExtractMentions returns every valid token in text, left to right.
// Duplicates are preserved. Tokens with an unknown entity type and stray "@"
// characters are ignored.
func ExtractMentions(text string) []model.EntityMention {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	mentions := make([]model.EntityMention, 0, len(matches))
	for _, m := range matches {
		typ, ok := model.ParseEntityType(m[2])
		if !ok {
			continue
		}
		mentions = append(mentions, model.EntityMention{
			ID:   m[3],
			Type: typ,
			Name: m[1],
		})
	}
	if len(mentions) == 0 {
		return nil
	}
	return mentions
}

// Humanize replaces each valid token with its "@name" display form.
func Humanize(text string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		if _, ok := model.ParseEntityType(m[2]); !ok {
			return tok
		}
		return "@" + m[1]
	})
}

// =============================================================================
// SUBSTITUTION
// =============================================================================

// Substitute replaces whole-word occurrences of each mapped name with its
// token. The text is scanned once, left to right: inserted tokens and tokens
// already present in the text are never rescanned. When several names start
// at the same position the longest one wins. Names are matched literally
// after NFC normalization of both sides; text outside a replaced name is
// returned byte for byte as given.
func Substitute(text string, mapping map[string]string) string {
	if len(mapping) == 0 || text == "" {
		return text
	}

	names := sortedNames(mapping)
	if len(names) == 0 {
		return text
	}

	nfc, srcOffset := normalizeWithOffsets(text)
	tokens := tokenPattern.FindAllStringIndex(nfc, -1)

	var sb strings.Builder
	copied := 0 // source bytes already written

	next := 0 // index into tokens
	for i := 0; i < len(nfc); {
		// Existing tokens are skipped and copied with the source.
		for next < len(tokens) && tokens[next][1] <= i {
			next++
		}
		if next < len(tokens) && tokens[next][0] == i {
			i = tokens[next][1]
			next++
			continue
		}

		if n, ok := matchAt(nfc, i, names); ok {
			from, okFrom := srcOffset[i]
			to, okTo := srcOffset[i+len(n.key)]
			// A match must start and end on a normalization boundary to
			// map back onto the source.
			if okFrom && okTo {
				sb.WriteString(text[copied:from])
				sb.WriteString(n.token)
				copied = to
				i += len(n.key)
				continue
			}
		}

		_, size := utf8.DecodeRuneInString(nfc[i:])
		i += size
	}

	if copied == 0 && sb.Len() == 0 {
		return text
	}
	sb.WriteString(text[copied:])
	return sb.String()
}

// normalizeWithOffsets returns the NFC form of text and, for every
// normalization segment boundary in it, the matching byte offset in text.
func normalizeWithOffsets(text string) (string, map[int]int) {
	var it norm.Iter
	it.InitString(norm.NFC, text)

	var sb strings.Builder
	sb.Grow(len(text))
	offsets := make(map[int]int)
	for !it.Done() {
		offsets[sb.Len()] = it.Pos()
		sb.Write(it.Next())
	}
	offsets[sb.Len()] = len(text)
	return sb.String(), offsets
}

// entry is a normalized mapping key with its replacement token.
type entry struct {
	key   string
	token string
}

// sortedNames normalizes the mapping keys and orders them longest first.
func sortedNames(mapping map[string]string) []entry {
	names := make([]entry, 0, len(mapping))
	for k, tok := range mapping {
		k = norm.NFC.String(k)
		if k == "" {
			continue
		}
		names = append(names, entry{key: k, token: tok})
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i].key) != len(names[j].key) {
			return len(names[i].key) > len(names[j].key)
		}
		return names[i].key < names[j].key
	})
	return names
}

// matchAt returns the first (longest) name that occurs at text[i:] as a whole word.
func matchAt(text string, i int, names []entry) (entry, bool) {
	for _, n := range names {
		if !strings.HasPrefix(text[i:], n.key) {
			continue
		}
		if !atBoundary(text, i, i+len(n.key), n.key) {
			continue
		}
		return n, true
	}
	return entry{}, false
}

// atBoundary checks the word boundaries around text[start:end]. A boundary
// is required only on a side where the name itself begins or ends with a
// word character.
func atBoundary(text string, start, end int, key string) bool {
	first, _ := utf8.DecodeRuneInString(key)
	if isWordRune(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(prev) {
			return false
		}
	}

	last, _ := utf8.DecodeLastRuneInString(key)
	if isWordRune(last) && end < len(text) {
		after, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(after) {
			return false
		}
	}
	return true
}

// isWordRune reports whether r is a letter, digit, combining mark or underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// =============================================================================
// SELECTION
// =============================================================================

// Selection accumulates the entities picked from autocomplete for the message
// being composed. It is owned by a single input widget and is not safe for
// concurrent use.
type Selection struct {
	tokens map[string]string
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{tokens: make(map[string]string)}
}

// Add records the token for a picked entity. Picking the same name again
// replaces the earlier entity.
func (s *Selection) Add(name string, typ model.EntityType, id string) {
	if s.tokens == nil {
		s.tokens = make(map[string]string)
	}
	s.tokens[name] = Encode(name, typ, id)
}

// Mapping returns a copy of the name-to-token mapping.
func (s *Selection) Mapping() map[string]string {
	out := make(map[string]string, len(s.tokens))
	for k, v := range s.tokens {
		out[k] = v
	}
	return out
}

// Len returns the number of picked entities.
func (s *Selection) Len() int {
	return len(s.tokens)
}

// Reset forgets every picked entity. Called after each send.
func (s *Selection) Reset() {
	s.tokens = make(map[string]string)
}
