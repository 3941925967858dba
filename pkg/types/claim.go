// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the records shared by the extraction, verification,
// and persistence stages.
package types

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// ClaimType categorizes an extracted claim.
type ClaimType string

const (
	// ClaimNumericGrowth is a growth assertion such as "grew from $100 to
	// $112" or "rose 12% YoY".
	ClaimNumericGrowth ClaimType = "numeric_growth"
)

// Status is the verification state of a claim.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusUnchecked Status = "unchecked"
	StatusError     Status = "error"
)

// Statuses lists every Status in summary order.
var Statuses = []Status{StatusPassed, StatusFailed, StatusUnchecked, StatusError}

// Claim is an atomic, independently verifiable assertion extracted from text.
type Claim struct {
	// ID is unique within one extraction run: the pattern family prefix
	// followed by the character offset of the match.
	ID string `json:"id" yaml:"id"`

	Type ClaimType `json:"type" yaml:"type"`

	// Text is the literal matched span.
	Text string `json:"text" yaml:"text"`

	// Evidence is reserved for citation attachment and is always empty.
	Evidence []string `json:"evidence" yaml:"evidence"`

	Calc Calc `json:"calc" yaml:"calc"`

	// Status is StatusUnchecked until a Verdict is produced.
	Status Status `json:"status" yaml:"status"`
}

// Verdict is the outcome of checking one claim's numeric consistency.
type Verdict struct {
	ID     string    `json:"id" yaml:"id"`
	Type   ClaimType `json:"type" yaml:"type"`
	Status Status    `json:"status" yaml:"status"`
	Reason string    `json:"reason" yaml:"reason"`
}

// Summary maps each status to its occurrence count in a batch.
type Summary map[Status]int

// NewSummary returns a Summary with every status present at zero.
func NewSummary() Summary {
	s := make(Summary, len(Statuses))
	for _, st := range Statuses {
		s[st] = 0
	}
	return s
}

// Total returns the sum of all counts.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Report is the ordered verdict list for a batch plus its summary.
type Report struct {
	Results []Verdict `json:"results" yaml:"results"`
	Summary Summary   `json:"summary" yaml:"summary"`
}

// ClaimGraph is the on-disk form of an extraction run (claimgraph.json).
type ClaimGraph struct {
	Claims []Claim `json:"claims" yaml:"claims"`
}

// SourceList is the on-disk form of the DOI scan (sources.json).
type SourceList struct {
	DOIs []string `json:"dois" yaml:"dois"`
}

// MarshalJSON writes the counts in Statuses order, followed by any other
// keys in lexical order, so reports diff cleanly between runs.
func (s Summary) MarshalJSON() ([]byte, error) {
	keys := make([]Status, 0, len(s))
	seen := make(map[Status]bool, len(s))
	for _, st := range Statuses {
		if _, ok := s[st]; ok {
			keys = append(keys, st)
			seen[st] = true
		}
	}
	var extra []Status
	for st := range s {
		if !seen[st] {
			extra = append(extra, st)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	keys = append(keys, extra...)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, st := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(st))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(s[st]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
