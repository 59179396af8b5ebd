package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/repos"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

type ScoringService interface {
	// Score runs the full interactive path: model gate, user precondition,
	// validation, inference, transactional persistence, lineage, telemetry.
	Score(ctx context.Context, submission *types.PortfolioSubmission) (*types.PredictionResult, error)
}

type scoringService struct {
	log            *logger.Logger
	predictor      *Predictor
	userRepo       repos.UserRepo
	portfolioRepo  repos.PortfolioRepo
	predictionRepo repos.PredictionRepo
	telemetry      TelemetryForwarder
}

// NewScoringService wires the interactive scoring path. telemetry may be nil
// when no forwarder is configured.
func NewScoringService(
	baseLog *logger.Logger,
	predictor *Predictor,
	userRepo repos.UserRepo,
	portfolioRepo repos.PortfolioRepo,
	predictionRepo repos.PredictionRepo,
	telemetry TelemetryForwarder,
) ScoringService {
	svcLog := baseLog.With("service", "ScoringService")
	return &scoringService{
		log:            svcLog,
		predictor:      predictor,
		userRepo:       userRepo,
		portfolioRepo:  portfolioRepo,
		predictionRepo: predictionRepo,
		telemetry:      telemetry,
	}
}

func (s *scoringService) Score(ctx context.Context, submission *types.PortfolioSubmission) (*types.PredictionResult, error) {
	// The model gate comes before everything else, so a missing model is
	// reported without touching the database.
	if !s.predictor.Loaded() {
		return nil, &ModelUnavailableError{}
	}

	if submission.UserID == nil {
		return nil, &types.ValidationError{Missing: []string{"user_id"}}
	}
	exists, err := s.userRepo.Exists(ctx, nil, *submission.UserID)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if !exists {
		return nil, &UnknownUserError{UserID: *submission.UserID}
	}

	features, err := submission.Validate()
	if err != nil {
		return nil, err
	}

	iq, err := s.predictor.Predict(features)
	if err != nil {
		return nil, err
	}
	classificacao := Classify(iq)
	feedback := GenerateFeedback(features)

	portfolioID, err := s.portfolioRepo.CreateWithMetrics(ctx, features.Portfolio())
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	result := &types.PredictionResult{
		Sucesso:         true,
		IndiceQualidade: iq,
		Classificacao:   classificacao,
		Feedback:        feedback,
		ModelName:       s.predictor.ModelName(),
		ModelVersion:    s.predictor.ModelVersion(),
		PredictedAt:     time.Now().UTC(),
		PortfolioID:     portfolioID,
	}

	feedbackJSON, _ := json.Marshal(feedback)
	prediction := &types.Prediction{
		PortfolioID:         portfolioID,
		PredictedIQ:         iq,
		ModelName:           result.ModelName,
		ModelVersion:        result.ModelVersion,
		Classification:      classificacao,
		FeedbackSuggestions: feedbackJSON,
	}
	if err := s.predictionRepo.Create(ctx, nil, prediction); err != nil {
		// The portfolio already committed; the scored result stands and
		// only the lineage row is missing.
		lineageErr := &LineageWriteError{PortfolioID: portfolioID, Err: err}
		s.log.Warn("Prediction lineage write failed", "portfolio_id", portfolioID, "error", lineageErr)
		result.LineageWarning = true
	} else {
		result.PredictionID = prediction.PredictionID
	}

	if s.telemetry != nil {
		delivery := s.telemetry.ForwardPrediction(ctx, features.UserID, result)
		if !delivery.Delivered {
			s.log.Warn("Telemetry suppressed", "user_id", features.UserID, "reason", delivery.Reason)
		}
	}

	s.log.Info("Portfolio scored",
		"user_id", features.UserID,
		"portfolio_id", portfolioID,
		"indice_qualidade", iq,
		"classificacao", classificacao,
	)
	return result, nil
}
