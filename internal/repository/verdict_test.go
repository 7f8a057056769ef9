package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairtrial-bias-server/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteVerdictStore {
	t.Helper()
	store, err := NewSQLiteVerdictStore(filepath.Join(t.TempDir(), "verdicts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(trialID string) *domain.VerdictRecord {
	return &domain.VerdictRecord{
		TrialID:     trialID,
		Filename:    "trial.csv",
		RawDataHash: "deadbeef" + trialID,
		Verdict: domain.BiasVerdict{
			Decision:        domain.ACCEPT,
			FairnessScore:   0.91,
			BiasProbability: 0.08,
			FairnessMetrics: domain.FairnessMetrics{
				DemographicParity:     0.98,
				DisparateImpactRatio:  0.85,
				EqualityOfOpportunity: 1.0,
			},
			Recommendations: []string{"Trial meets fairness criteria"},
		},
	}
}

func TestSaveAndGetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord("abc123")
	require.NoError(t, store.Save(ctx, record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())

	got, err := store.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.TrialID, got.TrialID)
	assert.Equal(t, record.Verdict.Decision, got.Verdict.Decision)
	assert.InDelta(t, record.Verdict.FairnessScore, got.Verdict.FairnessScore, 1e-12)
	assert.Equal(t, record.Verdict.Recommendations, got.Verdict.Recommendations)
}

func TestGetByIDNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveRejectsInvalidDecision(t *testing.T) {
	store := newTestStore(t)
	record := sampleRecord("bad")
	record.Verdict.Decision = domain.Decision("MAYBE")

	err := store.Save(context.Background(), record)
	assert.ErrorIs(t, err, domain.ErrInvalidDecision)
}

func TestListRecentOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		record := sampleRecord(string(rune('a' + i)))
		record.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, record))
	}

	records, err := store.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "e", records[0].TrialID)
	assert.Equal(t, "d", records[1].TrialID)
	assert.Equal(t, "c", records[2].TrialID)
}

func TestListRecentEmpty(t *testing.T) {
	store := newTestStore(t)
	records, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSaveDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO verdicts").WillReturnError(assert.AnError)

	store := NewVerdictStoreWithDB(db)
	err = store.Save(context.Background(), sampleRecord("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert verdict")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM verdicts").WillReturnError(assert.AnError)

	store := NewVerdictStoreWithDB(db)
	_, err = store.ListRecent(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query verdicts")
	assert.NoError(t, mock.ExpectationsWereMet())
}
