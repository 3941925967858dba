// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract finds atomic numeric-growth claims in free-form text.
//
// Two pattern families are recognized, each applied independently over the
// whole text:
//
//	"grew from $100 to $112"  -> base, current, delta and pct
//	"increased by 12% YoY"    -> pct only
//
// The patterns are the contract: the verb list and optional groups below are
// matched exactly, with no attempt at broader language understanding.
package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/exa/pkg/types"
)

// Claim ID prefixes, one per pattern family.
const (
	prefixFromTo = "c_fromto_"
	prefixPct    = "c_pct_"
)

const (
	// growthVerbs are the verbs that introduce a growth claim.
	growthVerbs = `(?:grew|rose|increased|went up)`

	// amount is an optional currency symbol followed by digits with optional
	// thousands separators and an optional decimal fraction. The grouped form
	// needs at least one separator; otherwise a trailing ungrouped number such
	// as "2500" would be cut to its first three digits.
	amount = `(?:\$)?\s*([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?|[0-9]+(?:\.[0-9]+)?)`

	// percent is a number followed by a percent sign.
	percent = `([0-9]+(?:\.[0-9]+)?)\s*%`
)

var (
	// fromToRe matches "[verb] from <amount> to <amount>"; the verb is optional.
	fromToRe = regexp.MustCompile(`(?i)` + growthVerbs + `?\s*from\s*` + amount + `\s*to\s*` + amount)

	// pctRe matches "<verb> [by] <number>% [yoy|year-over-year]".
	pctRe = regexp.MustCompile(`(?i)` + growthVerbs + `\s*(?:by\s*)?` + percent + `\s*(?:yoy|year[-\s]?over[-\s]?year)?`)
)

// GrowthClaims scans text with both pattern families and returns the
// from-to claims in match order followed by the percent-only claims in
// match order. Overlapping matches from the two families are both kept.
// Every claim starts out unchecked.
func GrowthClaims(text string) []types.Claim {
	claims := []types.Claim{}

	for _, m := range fromToRe.FindAllStringSubmatchIndex(text, -1) {
		base, err := parseAmount(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		current, err := parseAmount(text[m[4]:m[5]])
		if err != nil {
			continue
		}
		delta := current - base

		calc := types.Calc{
			Base:    types.Float(base),
			Current: types.Float(current),
			Delta:   types.Float(delta),
		}
		if base != 0 {
			calc.Pct = types.Float((delta / base) * 100)
		}

		claims = append(claims, newClaim(prefixFromTo, text, m[0], m[1], calc))
	}

	for _, m := range pctRe.FindAllStringSubmatchIndex(text, -1) {
		pct, err := parseFloat(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		claims = append(claims, newClaim(prefixPct, text, m[0], m[1], types.Calc{Pct: types.Float(pct)}))
	}

	return claims
}

// newClaim builds an unchecked growth claim for the match text[start:end].
// The ID carries the character offset of the match, not the byte offset.
func newClaim(prefix, text string, start, end int, calc types.Calc) types.Claim {
	return types.Claim{
		ID:       prefix + strconv.Itoa(utf8.RuneCountInString(text[:start])),
		Type:     types.ClaimNumericGrowth,
		Text:     text[start:end],
		Evidence: []string{},
		Calc:     calc,
		Status:   types.StatusUnchecked,
	}
}

// parseAmount strips thousands separators and parses the result as a float.
func parseAmount(s string) (float64, error) {
	return parseFloat(strings.ReplaceAll(s, ",", ""))
}

// parseFloat parses a matched number. Numbers too large for a float64 become
// ±Inf rather than being rejected.
func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		return f, nil
	}
	return f, err
}
