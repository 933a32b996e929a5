package validation

import "strings"

// profanityList covers French, Moroccan Darija (latinized), and English
// terms. Matching is case-insensitive substring; petitions that trip the
// filter are flagged for moderator review, not rejected automatically.
var profanityList = []string{
	// French
	"merde",
	"putain",
	"connard",
	"salope",
	"encule",
	// Darija (latinized)
	"zamel",
	"qahba",
	"kelb",
	"hmara",
	"wld l9ahba",
	// English
	"fuck",
	"shit",
	"bitch",
	"asshole",
	"bastard",
}

// ContainsProfanity reports whether the text contains a denylisted term.
// It is a coarse filter: the match is substring-based, so short terms are
// kept off the list to limit false positives.
func ContainsProfanity(s string) bool {
	lowered := strings.ToLower(s)
	for _, term := range profanityList {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
