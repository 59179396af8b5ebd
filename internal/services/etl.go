package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/repos"
	"github.com/hubfolio/hubfolio-backend/internal/storage"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

// DefaultBatchObjectKey is where the publisher drops the portfolio dataset.
const DefaultBatchObjectKey = "hubfolio/data/portfolios.json"

type ETLService interface {
	// Run extracts the batch object, loads every record it can, and returns
	// run statistics. Stats are returned even when the run fails; in that
	// case the original cause is also returned and Status is "failed".
	Run(ctx context.Context, objectKey string) (*types.BatchStats, error)
}

type etlService struct {
	log           *logger.Logger
	store         storage.ObjectStore
	userRepo      repos.UserRepo
	portfolioRepo repos.PortfolioRepo
}

func NewETLService(baseLog *logger.Logger, store storage.ObjectStore, userRepo repos.UserRepo, portfolioRepo repos.PortfolioRepo) ETLService {
	svcLog := baseLog.With("service", "ETLService")
	return &etlService{log: svcLog, store: store, userRepo: userRepo, portfolioRepo: portfolioRepo}
}

func (s *etlService) Run(ctx context.Context, objectKey string) (*types.BatchStats, error) {
	if objectKey == "" {
		objectKey = DefaultBatchObjectKey
	}
	stats := &types.BatchStats{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}
	s.log.Info("Batch run started", "run_id", stats.RunID, "object_key", objectKey)

	data, err := s.store.Get(ctx, objectKey)
	if err != nil {
		extErr := &ExtractionError{Key: objectKey, Err: err}
		s.finish(stats, extErr)
		return stats, extErr
	}

	records, err := types.DecodeBatch(data)
	if err != nil {
		extErr := &ExtractionError{Key: objectKey, Err: err}
		s.finish(stats, extErr)
		return stats, extErr
	}

	for i, rec := range records {
		outcome, err := s.loadRecord(ctx, &rec)
		if outcome.userInserted {
			stats.UsersInserted++
		}
		if outcome.portfolioInserted {
			stats.PortfoliosInserted++
		}
		if outcome.metricsCalculated {
			stats.MetricsCalculated++
		}
		if err == nil {
			continue
		}
		if isConnectivityError(err) {
			// Infrastructure is gone; skipping ahead would only repeat
			// the same failure for every remaining record.
			fatal := fmt.Errorf("record %d: %w", i, err)
			s.finish(stats, fatal)
			return stats, fatal
		}
		recErr := &RecordError{Index: i, Err: err}
		if rec.UserID != nil {
			recErr.UserID = *rec.UserID
		}
		stats.Errors++
		stats.Failures = append(stats.Failures, types.RecordFailure{
			Index:  recErr.Index,
			UserID: recErr.UserID,
			Cause:  err.Error(),
		})
		s.log.Warn("Record skipped", "run_id", stats.RunID, "index", i, "error", err)
	}

	s.finish(stats, nil)
	return stats, nil
}

type recordOutcome struct {
	userInserted      bool
	portfolioInserted bool
	metricsCalculated bool
}

// loadRecord reports partial progress even on failure: a record whose user
// upserted but whose portfolio insert failed still counts the user.
func (s *etlService) loadRecord(ctx context.Context, rec *types.BatchRecord) (recordOutcome, error) {
	var out recordOutcome

	user, portfolio, err := rec.Validate()
	if err != nil {
		return out, err
	}
	if err := s.userRepo.Upsert(ctx, nil, user); err != nil {
		return out, err
	}
	out.userInserted = true

	if err := s.portfolioRepo.Create(ctx, nil, portfolio); err != nil {
		return out, err
	}
	out.portfolioInserted = true

	if err := s.portfolioRepo.CalculateMetrics(ctx, nil, portfolio.PortfolioID); err != nil {
		return out, err
	}
	out.metricsCalculated = true

	return out, nil
}

func (s *etlService) finish(stats *types.BatchStats, cause error) {
	stats.Duration = time.Since(stats.StartedAt)
	stats.DurationSeconds = stats.Duration.Seconds()
	if cause != nil {
		stats.Status = types.BatchStatusFailed
		stats.ErrorMessage = cause.Error()
		var extErr *ExtractionError
		if errors.As(cause, &extErr) {
			s.log.Error("Batch run failed during extraction", "run_id", stats.RunID, "error", cause)
		} else {
			s.log.Error("Batch run aborted", "run_id", stats.RunID, "error", cause)
		}
		return
	}
	stats.Status = types.BatchStatusSuccess
	s.log.Info("Batch run finished",
		"run_id", stats.RunID,
		"users_inserted", stats.UsersInserted,
		"portfolios_inserted", stats.PortfoliosInserted,
		"metrics_calculated", stats.MetricsCalculated,
		"errors", stats.Errors,
		"duration_seconds", stats.DurationSeconds,
	)
}
