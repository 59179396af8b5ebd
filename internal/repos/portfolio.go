package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

type PortfolioRepo interface {
	Create(ctx context.Context, tx *gorm.DB, portfolio *types.Portfolio) error
	CalculateMetrics(ctx context.Context, tx *gorm.DB, portfolioID int64) error

	// CreateWithMetrics runs the insert and the metrics computation in one
	// transaction; a failure in either leaves no portfolio or metrics row.
	CreateWithMetrics(ctx context.Context, portfolio *types.Portfolio) (int64, error)
}

type portfolioRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPortfolioRepo(db *gorm.DB, baseLog *logger.Logger) PortfolioRepo {
	repoLog := baseLog.With("repo", "PortfolioRepo")
	return &portfolioRepo{db: db, log: repoLog}
}

func (pr *portfolioRepo) Create(ctx context.Context, tx *gorm.DB, portfolio *types.Portfolio) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).Create(portfolio).Error
}

func (pr *portfolioRepo) CalculateMetrics(ctx context.Context, tx *gorm.DB, portfolioID int64) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Exec("SELECT calculate_portfolio_metrics(?)", portfolioID).Error
}

func (pr *portfolioRepo) CreateWithMetrics(ctx context.Context, portfolio *types.Portfolio) (int64, error) {
	err := pr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := pr.Create(ctx, tx, portfolio); err != nil {
			return err
		}
		return pr.CalculateMetrics(ctx, tx, portfolio.PortfolioID)
	})
	if err != nil {
		return 0, err
	}
	pr.log.Info("Portfolio created with metrics", "portfolio_id", portfolio.PortfolioID, "user_id", portfolio.UserID)
	return portfolio.PortfolioID, nil
}
