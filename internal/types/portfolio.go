package types

import (
	"time"
)

// Portfolio is insert-only: a resubmission creates a new row, it never
// updates an existing one.
type Portfolio struct {
	PortfolioID             int64     `gorm:"primaryKey;autoIncrement;column:portfolio_id" json:"portfolio_id"`
	UserID                  int64     `gorm:"not null;index;column:user_id" json:"user_id"`
	Bio                     bool      `gorm:"not null;column:bio" json:"bio"`
	ProjetosMin             int       `gorm:"not null;column:projetos_min" json:"projetos_min"`
	HabilidadesMin          int       `gorm:"not null;column:habilidades_min" json:"habilidades_min"`
	Contatos                bool      `gorm:"not null;column:contatos" json:"contatos"`
	KwContexto              int       `gorm:"not null;column:kw_contexto" json:"kw_contexto"`
	KwProcesso              int       `gorm:"not null;column:kw_processo" json:"kw_processo"`
	KwResultado             int       `gorm:"not null;column:kw_resultado" json:"kw_resultado"`
	ConsistenciaVisualScore float64   `gorm:"not null;column:consistencia_visual_score" json:"consistencia_visual_score"`
	CreatedAt               time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

// PortfolioMetrics is 1:1 with Portfolio and written exclusively by the
// calculate_portfolio_metrics database function. Re-running the function
// overwrites the row, it never duplicates it.
type PortfolioMetrics struct {
	PortfolioID     int64     `gorm:"primaryKey;column:portfolio_id" json:"portfolio_id"`
	SecoesCompletas int       `gorm:"not null;column:secoes_completas" json:"secoes_completas"`
	KeywordTotal    int       `gorm:"not null;column:keyword_total" json:"keyword_total"`
	IndiceQualidade float64   `gorm:"not null;column:indice_qualidade" json:"indice_qualidade"`
	CalculatedAt    time.Time `gorm:"not null;default:now()" json:"calculated_at"`
}

func (PortfolioMetrics) TableName() string {
	return "portfolio_metrics"
}
