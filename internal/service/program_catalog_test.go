package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mihas-katc/admissions-api/internal/eligibility"
	"github.com/mihas-katc/admissions-api/internal/models"
	"github.com/mihas-katc/admissions-api/internal/repository"
)

func TestProgramCatalogCachesCriteria(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer redisClient.Close()

	db := newTestDB(t)
	seedClinicalMedicine(t, db)
	catalog := NewProgramCatalog(repository.NewProgramRepository(db), redisClient, time.Minute, testLogger())
	ctx := context.Background()

	first, err := catalog.Criteria(ctx, "clinical-medicine")
	require.NoError(t, err)
	require.Equal(t, "Diploma in Clinical Medicine", first.Program.Name)
	require.Equal(t, 5, first.Program.MinSubjects)
	require.Len(t, first.Rules, 2)
	require.Equal(t, eligibility.RuleSubjectCount, first.Rules[0].Type)
	require.Len(t, first.Requirements, 3)

	ttl := mini.TTL("eligibility:program:clinical-medicine")
	require.Equal(t, time.Minute, ttl)

	// Rows changed behind the cache stay invisible until invalidated.
	require.NoError(t, db.Model(&models.Program{}).Where("id = ?", "clinical-medicine").Update("name", "Renamed").Error)

	cached, err := catalog.Criteria(ctx, "clinical-medicine")
	require.NoError(t, err)
	require.Equal(t, "Diploma in Clinical Medicine", cached.Program.Name)

	var condition eligibility.SubjectCountCondition
	require.NoError(t, json.Unmarshal(cached.Rules[0].Condition, &condition))
	require.Equal(t, 5, condition.MinSubjects)

	catalog.Invalidate(ctx, "clinical-medicine")
	fresh, err := catalog.Criteria(ctx, "clinical-medicine")
	require.NoError(t, err)
	require.Equal(t, "Renamed", fresh.Program.Name)
}

func TestProgramCatalogMissingAndInactivePrograms(t *testing.T) {
	db := newTestDB(t)
	seedClinicalMedicine(t, db)
	catalog := NewProgramCatalog(repository.NewProgramRepository(db), nil, 0, testLogger())
	ctx := context.Background()

	_, err := catalog.Criteria(ctx, "unknown")
	require.ErrorIs(t, err, ErrProgramNotFound)

	require.NoError(t, db.Model(&models.Program{}).Where("id = ?", "clinical-medicine").Update("is_active", false).Error)
	_, err = catalog.Criteria(ctx, "clinical-medicine")
	require.ErrorIs(t, err, ErrProgramNotFound)

	catalog.Invalidate(ctx, "clinical-medicine")
}

func TestEventPublisherWithoutBrokersIsSilent(t *testing.T) {
	publisher := NewEventPublisher(nil, "mihas:test", nil, testLogger())
	require.NoError(t, publisher.Publish(context.Background(), EventAssessmentCompleted, map[string]string{"id": "1"}))
	require.NoError(t, NewNoopEventPublisher().Publish(context.Background(), EventAppealSubmitted, nil))
}
