// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/exa/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "exa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport() types.Report {
	return types.Report{
		Results: []types.Verdict{
			{ID: "c_fromto_8", Type: types.ClaimNumericGrowth, Status: types.StatusPassed, Reason: "Computed pct=12.0000 from base/current."},
			{ID: "c_pct_6", Type: types.ClaimNumericGrowth, Status: types.StatusUnchecked, Reason: "Insufficient numeric components to verify."},
		},
		Summary: types.Summary{
			types.StatusPassed:    1,
			types.StatusFailed:    0,
			types.StatusUnchecked: 1,
			types.StatusError:     0,
		},
	}
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	report := sampleReport()

	id, err := s.RecordRun(ctx, "answer.txt", 0.1, report)
	require.NoError(t, err)
	assert.Positive(t, id)

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "answer.txt", runs[0].Input)
	assert.Equal(t, 0.1, runs[0].Tolerance)
	assert.Equal(t, report.Summary, runs[0].Summary)
	assert.WithinDuration(t, time.Now(), runs[0].StartedAt, time.Minute)

	verdicts, err := s.Verdicts(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, report.Results, verdicts)
}

func TestRuns_NewestFirstAndLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	var ids []int64
	for _, in := range []string{"a.txt", "b.txt", "c.txt"} {
		id, err := s.RecordRun(ctx, in, 0.1, sampleReport())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	all, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecordRun_EmptyReport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.RecordRun(ctx, "empty.txt", 0, types.Report{Results: []types.Verdict{}, Summary: types.NewSummary()})
	require.NoError(t, err)

	verdicts, err := s.Verdicts(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
	assert.NotNil(t, verdicts)
}

func TestVerdicts_UnknownRun(t *testing.T) {
	verdicts, err := testStore(t).Verdicts(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}

func TestWorks(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, ok, err := s.GetWork(ctx, "10.1000/x", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	msg := json.RawMessage(`{"title":["First"]}`)
	require.NoError(t, s.PutWork(ctx, "10.1000/x", msg))

	got, ok, err := s.GetWork(ctx, "10.1000/x", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, string(msg), string(got))

	require.NoError(t, s.PutWork(ctx, "10.1000/x", json.RawMessage(`{"title":["Second"]}`)))
	got, ok, err = s.GetWork(ctx, "10.1000/x", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"title":["Second"]}`, string(got))
}

func TestGetWork_Expired(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	fetched := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fetched }
	require.NoError(t, s.PutWork(ctx, "10.1000/old", json.RawMessage(`{}`)))

	s.now = func() time.Time { return fetched.Add(48 * time.Hour) }
	_, ok, err := s.GetWork(ctx, "10.1000/old", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.GetWork(ctx, "10.1000/old", 72*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exa.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, "a.txt", 0.1, sampleReport())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
