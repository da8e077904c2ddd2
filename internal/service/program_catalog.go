package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mihas-katc/admissions-api/internal/eligibility"
	"github.com/mihas-katc/admissions-api/internal/models"
	"github.com/mihas-katc/admissions-api/internal/observability"
	"github.com/mihas-katc/admissions-api/internal/repository"
)

// ErrProgramNotFound indicates the programme does not exist or is inactive.
var ErrProgramNotFound = errors.New("program not found")

// ProgramCriteria is everything the engine needs to assess one programme.
type ProgramCriteria struct {
	Program      eligibility.Program       `json:"program"`
	Rules        []eligibility.Rule        `json:"rules"`
	Requirements []eligibility.Requirement `json:"requirements"`
}

// ProgramCatalog loads programme criteria, caching them in Redis.
type ProgramCatalog interface {
	Criteria(ctx context.Context, programID string) (ProgramCriteria, error)
	Invalidate(ctx context.Context, programID string)
}

type programCatalog struct {
	programs repository.ProgramRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewProgramCatalog builds the catalog. A nil Redis client disables caching.
func NewProgramCatalog(programs repository.ProgramRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgramCatalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &programCatalog{
		programs: programs,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "program_catalog").Logger(),
	}
}

func criteriaCacheKey(programID string) string {
	return fmt.Sprintf("eligibility:program:%s", programID)
}

func (c *programCatalog) Criteria(ctx context.Context, programID string) (ProgramCriteria, error) {
	cacheKey := criteriaCacheKey(programID)

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey).Result(); err == nil {
			var criteria ProgramCriteria
			if unmarshalErr := json.Unmarshal([]byte(cached), &criteria); unmarshalErr == nil {
				observability.ProgramCache().WithLabelValues("hit").Inc()
				return criteria, nil
			}
			c.logger.Warn().Str("program_id", programID).Msg("discarding unreadable criteria cache entry")
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("failed to read criteria cache")
		}
		observability.ProgramCache().WithLabelValues("miss").Inc()
	}

	program, err := c.programs.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProgramCriteria{}, ErrProgramNotFound
		}
		return ProgramCriteria{}, fmt.Errorf("load program %s: %w", programID, err)
	}
	if !program.IsActive {
		return ProgramCriteria{}, ErrProgramNotFound
	}

	criteria := buildCriteria(program)

	if c.cache != nil {
		if payload, err := json.Marshal(criteria); err == nil {
			if err := c.cache.Set(ctx, cacheKey, payload, c.cacheTTL).Err(); err != nil {
				c.logger.Warn().Err(err).Msg("failed to store criteria cache")
			}
		}
	}

	return criteria, nil
}

func (c *programCatalog) Invalidate(ctx context.Context, programID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, criteriaCacheKey(programID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("program_id", programID).Msg("failed to invalidate criteria cache")
	}
}

// buildCriteria maps a programme with preloaded associations into engine
// input. Inactive rules and optional requirements are dropped.
func buildCriteria(program models.Program) ProgramCriteria {
	criteria := ProgramCriteria{
		Program: eligibility.Program{
			ID:                  program.ID,
			Name:                program.Name,
			MinSubjects:         program.MinSubjects,
			Guidance:            program.GuidanceList(),
			AlternativePathways: program.AlternativePathwayList(),
		},
		Rules:        make([]eligibility.Rule, 0, len(program.Rules)),
		Requirements: make([]eligibility.Requirement, 0, len(program.Requirements)),
	}

	for _, rule := range program.Rules {
		if !rule.IsActive {
			continue
		}
		criteria.Rules = append(criteria.Rules, eligibility.Rule{
			ID:        rule.ID,
			Type:      eligibility.RuleType(rule.RuleType),
			Condition: json.RawMessage(rule.Condition),
			Weight:    rule.Weight,
			Active:    rule.IsActive,
		})
	}

	for _, requirement := range program.Requirements {
		if !requirement.IsMandatory {
			continue
		}
		criteria.Requirements = append(criteria.Requirements, eligibility.Requirement{
			SubjectName:  requirement.SubjectName,
			MinimumGrade: requirement.MinimumGrade,
			Mandatory:    requirement.IsMandatory,
		})
	}

	return criteria
}
