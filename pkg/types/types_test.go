// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Calc
		wantErr string
	}{
		{
			name:  "numbers",
			input: `{"base": 100, "current": 112.5, "delta": null, "pct": 12}`,
			want:  Calc{Base: Float(100), Current: Float(112.5), Pct: Float(12)},
		},
		{
			name:    "numeric strings with separators",
			input:   `{"base": "1,000", "current": " 2500 "}`,
			wantErr: `could not convert base to float: "1,000"`,
		},
		{
			name:    "numeric string base",
			input:   `{"base": "100", "current": "112", "pct": 12}`,
			wantErr: `could not convert base to float: "100"`,
		},
		{
			name:  "numeric string pct",
			input: `{"base": 100, "current": 112, "pct": " 12.5 "}`,
			want:  Calc{Base: Float(100), Current: Float(112), Pct: Float(12.5)},
		},
		{
			name:    "pct with separators",
			input:   `{"pct": "1,200"}`,
			wantErr: `could not convert pct to float: "1,200"`,
		},
		{
			name:  "empty",
			input: `{}`,
			want:  Calc{},
		},
		{
			name:    "non-numeric string",
			input:   `{"base": "abc", "current": 112}`,
			wantErr: `could not convert base to float: "abc"`,
		},
		{
			name:    "first malformed field in field order",
			input:   `{"pct": [1], "current": true}`,
			wantErr: `could not convert current to float: true`,
		},
		{
			name:    "object value",
			input:   `{"delta": {"v": 1}}`,
			wantErr: `could not convert delta to float: {"v": 1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Calc
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			if tt.wantErr != "" {
				require.Error(t, got.Err())
				assert.Equal(t, tt.wantErr, got.Err().Error())
				assert.False(t, got.IsEmpty())
				return
			}
			assert.NoError(t, got.Err())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalcUnmarshal_NotAnObject(t *testing.T) {
	var c Calc
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &c))
}

func TestCalcMarshal(t *testing.T) {
	data, err := json.Marshal(Calc{Base: Float(100), Pct: Float(12)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"base": 100, "current": null, "delta": null, "pct": 12}`, string(data))
}

func TestCalcMarshal_NonFinite(t *testing.T) {
	in := Calc{Base: Float(100), Current: Float(math.Inf(1)), Delta: Float(math.Inf(-1)), Pct: Float(math.NaN())}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"base": 100, "current": "Infinity", "delta": "-Infinity", "pct": "NaN"}`, string(data))

	var out Calc
	require.NoError(t, json.Unmarshal(data, &out))
	require.NoError(t, out.Err())
	assert.Equal(t, 100.0, *out.Base)
	assert.True(t, math.IsInf(*out.Current, 1))
	assert.True(t, math.IsInf(*out.Delta, -1))
	assert.True(t, math.IsNaN(*out.Pct))
}

func TestCalcUnmarshal_OverflowingNumber(t *testing.T) {
	var c Calc
	require.NoError(t, json.Unmarshal([]byte(`{"current": 1e400}`), &c))
	require.NoError(t, c.Err())
	assert.True(t, math.IsInf(*c.Current, 1))
}

func TestCalcFieldErrAndHas(t *testing.T) {
	var c Calc
	require.NoError(t, json.Unmarshal([]byte(`{"base": "abc", "current": 112, "delta": null}`), &c))

	assert.True(t, c.Has(FieldBase))
	assert.True(t, c.Has(FieldCurrent))
	assert.False(t, c.Has(FieldDelta))
	assert.False(t, c.Has(FieldPct))

	assert.EqualError(t, c.FieldErr(FieldBase), `could not convert base to float: "abc"`)
	assert.NoError(t, c.FieldErr(FieldCurrent))
}

func TestCalcIsEmpty(t *testing.T) {
	assert.True(t, Calc{}.IsEmpty())
	assert.False(t, Calc{Pct: Float(0)}.IsEmpty())
}

func TestSummaryMarshal(t *testing.T) {
	s := NewSummary()
	s[StatusError] = 2
	s[StatusPassed] = 5
	s["custom"] = 1

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"passed":5,"failed":0,"unchecked":0,"error":2,"custom":1}`, string(data))
	assert.Equal(t, 8, s.Total())

	var back Summary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestSummaryMarshal_Empty(t *testing.T) {
	data, err := json.Marshal(Summary{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }, ""},
		{"negative tolerance", func(c *Config) { c.Tolerance = -0.1 }, "tolerance"},
		{"empty outdir", func(c *Config) { c.OutDir = "" }, "outdir"},
		{"zero rate", func(c *Config) { c.Crossref.Rate = 0 }, "crossref.rate"},
		{"zero workers", func(c *Config) { c.Crossref.Workers = 0 }, "crossref.workers"},
		{"zero timeout", func(c *Config) { c.Crossref.Timeout = 0 }, "crossref.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAgentString(t *testing.T) {
	cfg := DefaultConfig().Crossref
	assert.Equal(t, "exa/0.1 (Executable Answers)", cfg.AgentString())

	cfg.Mailto = "ops@example.org"
	assert.Equal(t, "exa/0.1 (Executable Answers) mailto:ops@example.org", cfg.AgentString())

	cfg.UserAgent = ""
	cfg.Mailto = ""
	assert.Equal(t, DefaultCrossrefAgent, cfg.AgentString())
}

func TestWorkJSON(t *testing.T) {
	w := Work{DOI: "10.1/x", Title: "T", Authors: []string{}, Message: json.RawMessage(`{"a":1}`)}
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "issued")

	w.Issued = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	data, err = json.Marshal(w)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"issued":"2020-01-01T00:00:00Z"`)
}
