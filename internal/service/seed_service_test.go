package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mihas-katc/admissions-api/internal/models"
	"github.com/mihas-katc/admissions-api/internal/repository"
)

func TestSeedServiceTokenGuard(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProgramRepository(db)
	ctx := context.Background()

	disabled := NewSeedService(repo, nil, testValidator(), false, "secret", testLogger())
	_, err := disabled.SeedPrograms(ctx, "secret", nil)
	require.ErrorIs(t, err, ErrSeedDisabled)

	svc := NewSeedService(repo, nil, testValidator(), true, "secret", testLogger())
	_, err = svc.SeedPrograms(ctx, "wrong", nil)
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	unset := NewSeedService(repo, nil, testValidator(), true, "", testLogger())
	_, err = unset.SeedPrograms(ctx, "", nil)
	require.ErrorIs(t, err, ErrSeedUnauthorized)
}

func TestSeedServiceSeedsDefaultCatalogueIdempotently(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProgramRepository(db)
	svc := NewSeedService(repo, nil, testValidator(), true, "secret", testLogger())
	ctx := context.Background()

	affected, err := svc.SeedPrograms(ctx, "secret", nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), affected)

	affected, err = svc.SeedPrograms(ctx, " secret ", nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), affected)

	var programs, rules, requirements int64
	require.NoError(t, db.Model(&models.Program{}).Count(&programs).Error)
	require.NoError(t, db.Model(&models.EligibilityRule{}).Count(&rules).Error)
	require.NoError(t, db.Model(&models.CourseRequirement{}).Count(&requirements).Error)
	require.Equal(t, int64(3), programs)
	require.Equal(t, int64(9), rules)
	require.Equal(t, int64(13), requirements)

	program, err := repo.GetByID(ctx, "clinical-medicine")
	require.NoError(t, err)
	require.Equal(t, "KATC", program.Institution)
	require.Len(t, program.Rules, 3)
	require.Equal(t, []string{"Certificate in Environmental Health", "Diploma in Registered Nursing"}, program.AlternativePathwayList())
}
