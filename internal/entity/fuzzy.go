// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package entity provides the catalog of mentionable entities.
package entity

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// FUZZY MATCHING
// =============================================================================

// FuzzyMatch performs fuzzy matching between a query and an entity name.
// Returns a score (higher is better) and whether the match succeeded.
//
// Matching rules:
//   - Each character in query must appear in order in target
//   - Consecutive matches get bonus points
//   - Matches at word boundaries get bonus points
//   - Matches at start of string get bonus points
//   - Case and accent insensitive ("jose" matches "José")
//
// Examples:
//   - "as" matches "Ana Souza" (start + word boundary)
//   - "onb" matches "Onboarding"
//   - "xyz" does not match "Atlas"
func FuzzyMatch(query, target string) (score int, matched bool) {
	if query == "" {
		return 0, true
	}

	queryRunes := foldRunes(query)
	targetRunes := foldRunes(target)

	if len(queryRunes) > len(targetRunes) {
		return 0, false
	}

	targetOrigRunes := []rune(target)
	queryOrigRunes := []rune(query)

	queryPos := 0
	lastMatchPos := -1

	for targetPos := 0; targetPos < len(targetRunes) && queryPos < len(queryRunes); targetPos++ {
		if targetRunes[targetPos] != queryRunes[queryPos] {
			continue
		}
		matchScore := 1

		if lastMatchPos == targetPos-1 {
			matchScore += 5
		}
		if targetPos == 0 {
			matchScore += 10
		}
		if isWordBoundary(targetOrigRunes, targetPos) {
			matchScore += 7
		}
		if targetPos < len(targetOrigRunes) && queryPos < len(queryOrigRunes) &&
			targetOrigRunes[targetPos] == queryOrigRunes[queryPos] {
			matchScore += 2
		}

		score += matchScore
		lastMatchPos = targetPos
		queryPos++
	}

	matched = queryPos == len(queryRunes)

	// Shorter names are better matches.
	if matched {
		score -= len(targetRunes) / 4
	}
	return score, matched
}

// HighlightPositions returns the rune positions of target that FuzzyMatch
// pairs with the query characters.
func HighlightPositions(query, target string) []int {
	if query == "" {
		return nil
	}
	queryRunes := foldRunes(query)
	targetRunes := foldRunes(target)

	var positions []int
	queryPos := 0
	for targetPos := 0; targetPos < len(targetRunes) && queryPos < len(queryRunes); targetPos++ {
		if targetRunes[targetPos] == queryRunes[queryPos] {
			positions = append(positions, targetPos)
			queryPos++
		}
	}
	if queryPos < len(queryRunes) {
		return nil
	}
	return positions
}

// isWordBoundary returns true if pos starts a word: after a space, slash,
// dash, underscore or parenthesis, or at a camelCase hump.
func isWordBoundary(runes []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	if pos >= len(runes) {
		return false
	}

	prev := runes[pos-1]
	switch prev {
	case ' ', '/', '-', '_', '(':
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(runes[pos])
}

// foldRunes lowercases s and strips diacritics rune by rune, so positions
// line up with []rune(s).
func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		r = unicode.ToLower(r)
		if r >= utf8.RuneSelf {
			if base, _ := utf8.DecodeRuneInString(norm.NFD.String(string(r))); base != utf8.RuneError {
				r = base
			}
		}
		runes[i] = r
	}
	return runes
}
