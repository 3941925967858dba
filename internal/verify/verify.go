// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify recomputes growth percentages from the numeric components
// of a claim and classifies each claim as passed, failed, unchecked, or
// error. Tolerance is absolute, in percentage points.
package verify

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/pdiddy/exa/pkg/types"
)

// DefaultEpsilonPP is the default tolerance in percentage points.
const DefaultEpsilonPP = types.DefaultTolerance

// Reasons for verdicts that carry no numbers.
const (
	ReasonUnknownType  = "Unknown claim type"
	ReasonInsufficient = "Insufficient numeric components to verify."
)

// relNoise is the relative slack that absorbs rounding in the recomputed
// percentage, so a zero tolerance still accepts 100 -> 112 as 12%.
const relNoise = 1e-9

// errDivisionByZero is reported when a claim's base is zero.
var errDivisionByZero = errors.New("float division by zero")

// ValidateTolerance rejects tolerances that cannot be compared against.
func ValidateTolerance(epsilonPP float64) error {
	if math.IsNaN(epsilonPP) || epsilonPP < 0 {
		return fmt.Errorf("tolerance must be a non-negative number of percentage points, got %v", epsilonPP)
	}
	return nil
}

// PctFromBaseCurrent returns ((current/base) - 1) * 100. The division order
// is fixed so that results are reproducible bit for bit.
func PctFromBaseCurrent(base, current float64) (float64, error) {
	if base == 0 {
		return 0, errDivisionByZero
	}
	return ((current / base) - 1.0) * 100.0, nil
}

// PctFromBaseDelta returns (delta/base) * 100.
func PctFromBaseDelta(base, delta float64) (float64, error) {
	if base == 0 {
		return 0, errDivisionByZero
	}
	return (delta / base) * 100.0, nil
}

// Claim verifies a single claim. It never panics and never returns an
// error; arithmetic failures become a verdict with StatusError.
func Claim(c types.Claim, epsilonPP float64) (v types.Verdict) {
	v = types.Verdict{ID: c.ID, Type: c.Type, Status: types.StatusUnchecked}

	if c.Type != types.ClaimNumericGrowth {
		v.Reason = ReasonUnknownType
		return v
	}

	defer func() {
		if r := recover(); r != nil {
			v.Status = types.StatusError
			v.Reason = fmt.Sprintf("Exception: %v", r)
		}
	}()

	calc := c.Calc
	var (
		operands [2]string
		source   string
	)
	switch {
	case calc.Has(types.FieldBase) && calc.Has(types.FieldCurrent):
		operands = [2]string{types.FieldBase, types.FieldCurrent}
		source = "base/current"
	case calc.Has(types.FieldBase) && calc.Has(types.FieldDelta):
		operands = [2]string{types.FieldBase, types.FieldDelta}
		source = "base/delta"
	default:
		v.Reason = ReasonInsufficient
		return v
	}
	for _, name := range operands {
		if err := calc.FieldErr(name); err != nil {
			return errorVerdict(v, err)
		}
	}

	var (
		est float64
		err error
	)
	if operands[1] == types.FieldCurrent {
		est, err = PctFromBaseCurrent(*calc.Base, *calc.Current)
	} else {
		est, err = PctFromBaseDelta(*calc.Base, *calc.Delta)
	}
	if err != nil {
		return errorVerdict(v, err)
	}

	if !calc.Has(types.FieldPct) {
		v.Status = types.StatusPassed
		v.Reason = fmt.Sprintf("Computed pct=%s from %s.", formatEstimate(est), source)
		return v
	}
	if err := calc.FieldErr(types.FieldPct); err != nil {
		return errorVerdict(v, err)
	}

	given := *calc.Pct
	if withinTolerance(est, given, epsilonPP) {
		v.Status = types.StatusPassed
		v.Reason = fmt.Sprintf("pct matches within %s pp (est=%s, given=%s).", formatFloat(epsilonPP), formatEstimate(est), formatFloat(given))
	} else {
		v.Status = types.StatusFailed
		v.Reason = fmt.Sprintf("pct mismatch (est=%s, given=%s); tol=%s pp.", formatEstimate(est), formatFloat(given), formatFloat(epsilonPP))
	}
	return v
}

// Claims verifies each claim independently and tallies the outcomes. The
// summary always contains all four statuses and sums to len(claims).
func Claims(claims []types.Claim, epsilonPP float64) types.Report {
	report := types.Report{
		Results: make([]types.Verdict, 0, len(claims)),
		Summary: types.NewSummary(),
	}
	for _, c := range claims {
		v := Claim(c, epsilonPP)
		report.Results = append(report.Results, v)
		report.Summary[v.Status]++
	}
	return report
}

// withinTolerance reports whether est and given differ by at most epsilonPP
// percentage points, or by rounding noise. Equal infinities match; any other
// infinity or NaN does not.
func withinTolerance(est, given, epsilonPP float64) bool {
	if est == given {
		return true
	}
	if math.IsInf(est, 0) || math.IsInf(given, 0) {
		return false
	}
	noise := relNoise * math.Max(math.Abs(est), math.Abs(given))
	return math.Abs(est-given) <= math.Max(noise, epsilonPP)
}

func errorVerdict(v types.Verdict, err error) types.Verdict {
	v.Status = types.StatusError
	v.Reason = "Exception: " + err.Error()
	return v
}

// formatEstimate renders a recomputed percentage to four decimals.
func formatEstimate(f float64) string {
	if s, ok := nonFinite(f); ok {
		return s
	}
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// formatFloat renders a float in its shortest exact form.
func formatFloat(f float64) string {
	if s, ok := nonFinite(f); ok {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func nonFinite(f float64) (string, bool) {
	switch {
	case math.IsInf(f, 1):
		return "inf", true
	case math.IsInf(f, -1):
		return "-inf", true
	case math.IsNaN(f):
		return "nan", true
	}
	return "", false
}
