package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/store"
)

// mockStore implements store.Store for testing.
type mockStore struct {
	counts      map[model.Status]int
	failures    []model.Outcome
	countErr    error
	failuresErr error
}

func (m *mockStore) CountByStatus(context.Context) (map[model.Status]int, error) {
	return m.counts, m.countErr
}

func (m *mockStore) RecentFailures(context.Context, int) ([]model.Outcome, error) {
	return m.failures, m.failuresErr
}

// Unused store methods, satisfy the interface.
func (m *mockStore) UpsertEnriched(context.Context, *model.EnrichedRecord) error { return nil }
func (m *mockStore) GetStatus(context.Context, string) (model.Status, error) {
	return "", store.ErrNotFound
}
func (m *mockStore) ListCompanies(context.Context, store.Filter) ([]model.CompanyInput, error) {
	return nil, nil
}
func (m *mockStore) InsertCompanies(context.Context, []model.CompanyInput) (int, error) {
	return 0, nil
}
func (m *mockStore) Migrate(context.Context) error { return nil }
func (m *mockStore) Close() error                  { return nil }

func TestCollector_EmptyStore(t *testing.T) {
	c := NewCollector(&mockStore{counts: map[model.Status]int{}})

	snap, err := c.Collect(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 0, snap.Total)
	assert.Equal(t, 0.0, snap.FailRate)
	assert.Empty(t, snap.RecentFailures)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_Counts(t *testing.T) {
	c := NewCollector(&mockStore{
		counts: map[model.Status]int{
			model.StatusOK:         40,
			model.StatusParseError: 5,
			model.StatusFailed:     5,
			model.StatusSkipped:    10,
		},
		failures: []model.Outcome{
			{Website: "https://a.example.jp", Status: model.StatusFailed, Error: "synthesis failed"},
		},
	})

	snap, err := c.Collect(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 60, snap.Total)
	assert.Equal(t, 40, snap.OK)
	assert.Equal(t, 5, snap.ParseError)
	assert.Equal(t, 5, snap.Failed)
	assert.Equal(t, 10, snap.Skipped)
	// 5 failed out of 50 attempted; skips do not count.
	assert.InDelta(t, 0.1, snap.FailRate, 0.001)
	require.Len(t, snap.RecentFailures, 1)
	assert.Equal(t, "synthesis failed", snap.RecentFailures[0].Error)
}

func TestCollector_ZeroSampleSkipsFailureQuery(t *testing.T) {
	c := NewCollector(&mockStore{
		counts:      map[model.Status]int{model.StatusOK: 1},
		failuresErr: eris.New("should not be called"),
	})

	snap, err := c.Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, snap.RecentFailures)
}

func TestCollector_CountError(t *testing.T) {
	c := NewCollector(&mockStore{countErr: eris.New("boom")})

	_, err := c.Collect(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count by status")
}

func TestProgress_RecordAndSnapshot(t *testing.T) {
	now := time.Now()
	p := newProgressAt(10, func() time.Time { return now })

	p.Record(model.StatusOK)
	p.Record(model.StatusParseError)
	p.Record(model.StatusFailed)
	p.Record(model.StatusSkipped)

	now = now.Add(2 * time.Minute)
	snap := p.Snapshot()

	assert.Equal(t, 10, snap.Total)
	assert.Equal(t, 4, snap.Processed)
	assert.Equal(t, 2, snap.Succeeded)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, snap.Skipped)
	assert.InDelta(t, 2.0, snap.RatePerMin, 0.001)
	// 6 remaining at 30s each.
	assert.Equal(t, 3*time.Minute, snap.ETA)
}

func TestProgress_NoETABeforeFirstResult(t *testing.T) {
	p := NewProgress(5)
	snap := p.Snapshot()

	assert.Equal(t, 0, snap.Processed)
	assert.Equal(t, 0.0, snap.RatePerMin)
	assert.Equal(t, time.Duration(0), snap.ETA)
}

func TestProgress_DoneHasNoETA(t *testing.T) {
	now := time.Now()
	p := newProgressAt(1, func() time.Time { return now })
	p.Record(model.StatusOK)

	now = now.Add(time.Second)
	snap := p.Snapshot()
	assert.Equal(t, time.Duration(0), snap.ETA)
}
