// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources finds DOI references in answer text and resolves them to
// bibliographic metadata through the Crossref API.
package sources

import (
	"regexp"
	"sort"
	"strings"
)

// doiRe matches DOIs embedded in prose: "10." followed by a 4-9 digit
// registrant code, a slash, and a run of non-whitespace ending at a word
// boundary.
var doiRe = regexp.MustCompile(`\b10\.\d{4,9}/\S+\b`)

// trailingPunct is stripped from the end of each match.
const trailingPunct = ").,;"

// ExtractDOIs returns the distinct DOIs found in text, sorted. No network
// access is performed.
func ExtractDOIs(text string) []string {
	seen := make(map[string]bool)
	dois := []string{}
	for _, m := range doiRe.FindAllString(text, -1) {
		doi := strings.TrimRight(m, trailingPunct)
		if doi == "" || seen[doi] {
			continue
		}
		seen[doi] = true
		dois = append(dois, doi)
	}
	sort.Strings(dois)
	return dois
}
