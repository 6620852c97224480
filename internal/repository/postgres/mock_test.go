package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/backend/internal/domain"
)

func TestMockRepository_SaveAssignsIDsAndKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()

	first, err := repo.SaveReport(ctx, domain.Report{Road: "MG Road", Severity: domain.SeverityLow})
	require.NoError(t, err)
	second, err := repo.SaveReport(ctx, domain.Report{ID: "fixed", Road: "MG Road", Severity: domain.SeverityHigh})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "fixed", second.ID)

	reports, err := repo.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, first.ID, reports[0].ID)
	assert.Equal(t, "fixed", reports[1].ID)
}

func TestMockRepository_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	_, _ = repo.SaveReport(ctx, domain.Report{Road: "MG Road"})

	reports, _ := repo.ListReports(ctx)
	reports[0].Road = "changed"

	again, _ := repo.ListReports(ctx)
	assert.Equal(t, "MG Road", again[0].Road)
}

func TestMockRepository_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.SaveReport(ctx, domain.Report{Severity: domain.SeverityLow})
		}()
	}
	wg.Wait()

	reports, err := repo.ListReports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 50)
}

func TestSeededMockRepository(t *testing.T) {
	repo := NewSeededMockRepository()

	reports, err := repo.ListReports(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, reports)
	assert.NoError(t, repo.Health(context.Background()))

	for _, r := range reports {
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, domain.DetectionsFor(r.Severity), r.Detections)
	}
}

func TestMockRepository_ClusterStatuses(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()

	records, err := repo.ListClusterStatuses(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveClusterStatus(ctx, domain.ClusterStatusRecord{ClusterID: "b", Status: domain.ClusterOpen, UpdatedAt: now}))
	require.NoError(t, repo.SaveClusterStatus(ctx, domain.ClusterStatusRecord{ClusterID: "a", Status: domain.ClusterInProgress, UpdatedAt: now}))
	require.NoError(t, repo.SaveClusterStatus(ctx, domain.ClusterStatusRecord{ClusterID: "b", Status: domain.ClusterFixed, UpdatedAt: now.Add(time.Hour)}))

	records, err = repo.ListClusterStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ClusterID)
	assert.Equal(t, domain.ClusterFixed, records[1].Status)
	assert.Equal(t, now.Add(time.Hour), records[1].UpdatedAt)
}
