// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import "strings"

// denylist terms are matched as case-insensitive substrings. Short
// words that appear inside ordinary ones ("ass" in "class") are left out.
var denylist = []string{
	"fuck",
	"shit",
	"bitch",
	"cunt",
	"asshole",
	"bastard",
	"dickhead",
	"whore",
	"slut",
	"retard",
	"wanker",
	"bollocks",
}

// IsExplicit reports whether comment contains a denylisted term.
func IsExplicit(comment string) bool {
	lower := strings.ToLower(comment)
	for _, term := range denylist {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
