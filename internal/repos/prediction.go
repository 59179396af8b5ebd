package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

type PredictionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, prediction *types.Prediction) error
}

type predictionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPredictionRepo(db *gorm.DB, baseLog *logger.Logger) PredictionRepo {
	repoLog := baseLog.With("repo", "PredictionRepo")
	return &predictionRepo{db: db, log: repoLog}
}

func (pr *predictionRepo) Create(ctx context.Context, tx *gorm.DB, prediction *types.Prediction) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(prediction).Error; err != nil {
		return err
	}
	pr.log.Info("Prediction saved", "prediction_id", prediction.PredictionID, "portfolio_id", prediction.PortfolioID, "predicted_iq", prediction.PredictedIQ)
	return nil
}
