package validation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlRe      = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)
	digitRunRe = regexp.MustCompile(`[0-9]{10,}`)
)

// ContainsSpam applies heuristic spam signals: embedded URLs, long digit
// runs (phone dumping), a character repeated five or more times in a row,
// or shouted words of five or more capitals. Like the profanity filter it
// only flags content for review.
func ContainsSpam(s string) bool {
	if urlRe.MatchString(s) {
		return true
	}
	if digitRunRe.MatchString(s) {
		return true
	}
	if hasRepeatedRun(s, 5) {
		return true
	}
	if hasShoutedWord(s, 5) {
		return true
	}
	return false
}

// hasRepeatedRun reports a run of n identical consecutive runes. RE2 has
// no backreferences, so this is a manual scan.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

func hasShoutedWord(s string, n int) bool {
	for _, word := range strings.Fields(s) {
		upper := 0
		allUpper := true
		for _, r := range word {
			if !unicode.IsLetter(r) {
				continue
			}
			if unicode.IsUpper(r) {
				upper++
			} else {
				allUpper = false
				break
			}
		}
		if allUpper && upper >= n {
			return true
		}
	}
	return false
}
