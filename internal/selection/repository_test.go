package selection

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/config"
	"github.com/wonny/sp500-screener/pkg/database"
)

func TestRepository_SaveAndLatest(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, &config.Config{
		Database: config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 0},
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	a := passingRecord("A")
	a.ForwardPE = contracts.Float(10)
	b := passingRecord("B")
	b.ForwardPE = contracts.Float(30)

	report, err := newTestPipeline().Run([]contracts.CanonicalRecord{a, b})
	require.NoError(t, err)
	report.Metadata.GeneratedAt = time.Now().UTC().Truncate(time.Second)

	repo := NewRepository(db.Pool)
	id, err := repo.SaveReport(ctx, report)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.Metadata.PassedCount, latest.Metadata.PassedCount)
	assert.True(t, latest.Metadata.GeneratedAt.Equal(report.Metadata.GeneratedAt))
	require.Len(t, latest.Results, 2)
	assert.Equal(t, "A", latest.Results[0].Symbol)
	assert.Nil(t, latest.Results[0].SMA200)

	runs, err := repo.ListRuns(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.Equal(t, id, runs[0].ID)
}
