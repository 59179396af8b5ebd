package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
)

// PortfolioStats mirrors the aggregate reporting row exposed on the summary
// endpoint.
type PortfolioStats struct {
	TotalPortfolios  int64    `json:"total_portfolios"`
	TotalUsers       int64    `json:"total_users"`
	TotalPredictions int64    `json:"total_predictions"`
	AvgIndice        *float64 `json:"avg_indice_qualidade"`
	MaxIndice        *float64 `json:"max_indice_qualidade"`
	MinIndice        *float64 `json:"min_indice_qualidade"`
}

type TopPortfolio struct {
	PortfolioID     int64   `json:"portfolio_id"`
	UserID          int64   `json:"user_id"`
	Nome            string  `json:"nome"`
	SecoesCompletas int     `json:"secoes_completas"`
	KeywordTotal    int     `json:"keyword_total"`
	IndiceQualidade float64 `json:"indice_qualidade"`
}

type SummaryRepo interface {
	TableCounts(ctx context.Context) (map[string]int64, error)
	PortfolioStats(ctx context.Context) (*PortfolioStats, error)
	TopPortfolios(ctx context.Context, limit int) ([]TopPortfolio, error)
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	repoLog := baseLog.With("repo", "SummaryRepo")
	return &summaryRepo{db: db, log: repoLog}
}

func (sr *summaryRepo) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, 4)
	for _, table := range []string{"users", "portfolios", "portfolio_metrics", "predictions"} {
		var count int64
		if err := sr.db.WithContext(ctx).Table(table).Count(&count).Error; err != nil {
			return nil, err
		}
		counts[table] = count
	}
	return counts, nil
}

func (sr *summaryRepo) PortfolioStats(ctx context.Context) (*PortfolioStats, error) {
	var stats PortfolioStats
	if err := sr.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COUNT(*) FROM portfolios) AS total_portfolios,
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM predictions) AS total_predictions,
			AVG(indice_qualidade) AS avg_indice,
			MAX(indice_qualidade) AS max_indice,
			MIN(indice_qualidade) AS min_indice
		FROM portfolio_metrics
	`).Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (sr *summaryRepo) TopPortfolios(ctx context.Context, limit int) ([]TopPortfolio, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []TopPortfolio
	if err := sr.db.WithContext(ctx).
		Raw("SELECT * FROM top_portfolios LIMIT ?", limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
