package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/types"
	"github.com/hubfolio/hubfolio-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "hubfolio_user", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_DB", "hubfolio", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...", "host", postgresHost, "database", postgresName)
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) CheckConnection() bool {
	sqlDB, err := s.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Portfolio{},
		&types.PortfolioMetrics{},
		&types.Prediction{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{
			name: "fk_portfolios_user_id",
			stmt: `ALTER TABLE "portfolios"
				ADD CONSTRAINT "fk_portfolios_user_id"
				FOREIGN KEY ("user_id")
				REFERENCES "users"("user_id")`,
		},
		{
			name: "fk_portfolio_metrics_portfolio_id",
			stmt: `ALTER TABLE "portfolio_metrics"
				ADD CONSTRAINT "fk_portfolio_metrics_portfolio_id"
				FOREIGN KEY ("portfolio_id")
				REFERENCES "portfolios"("portfolio_id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_predictions_portfolio_id",
			stmt: `ALTER TABLE "predictions"
				ADD CONSTRAINT "fk_predictions_portfolio_id"
				FOREIGN KEY ("portfolio_id")
				REFERENCES "portfolios"("portfolio_id")`,
		},
	}
	for _, c := range constraints {
		var exists bool
		if err := s.db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name,
		).Scan(&exists).Error; err != nil {
			return fmt.Errorf("check constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

// EnsureSchemaObjects installs the server-side metrics function and the
// reporting view. Both are CREATE OR REPLACE so repeated startups are safe.
func (s *PostgresService) EnsureSchemaObjects() error {
	s.log.Info("Installing metrics function and reporting view...")

	if err := s.db.Exec(`
		CREATE OR REPLACE FUNCTION calculate_portfolio_metrics(p_portfolio_id BIGINT)
		RETURNS VOID AS $$
		DECLARE
			p RECORD;
			v_secoes INT;
			v_keywords INT;
			v_iq NUMERIC;
		BEGIN
			SELECT * INTO p FROM portfolios WHERE portfolio_id = p_portfolio_id;
			IF NOT FOUND THEN
				RAISE EXCEPTION 'portfolio % not found', p_portfolio_id;
			END IF;

			v_secoes := (CASE WHEN p.bio THEN 1 ELSE 0 END)
				+ (CASE WHEN p.projetos_min > 0 THEN 1 ELSE 0 END)
				+ (CASE WHEN p.habilidades_min > 0 THEN 1 ELSE 0 END)
				+ (CASE WHEN p.contatos THEN 1 ELSE 0 END);
			v_keywords := p.kw_contexto + p.kw_processo + p.kw_resultado;
			v_iq := LEAST(100, GREATEST(0,
				v_secoes * 10
				+ LEAST(v_keywords, 15) * 2
				+ p.consistencia_visual_score * 0.3));

			INSERT INTO portfolio_metrics (portfolio_id, secoes_completas, keyword_total, indice_qualidade, calculated_at)
			VALUES (p_portfolio_id, v_secoes, v_keywords, v_iq, NOW())
			ON CONFLICT (portfolio_id) DO UPDATE SET
				secoes_completas = EXCLUDED.secoes_completas,
				keyword_total = EXCLUDED.keyword_total,
				indice_qualidade = EXCLUDED.indice_qualidade,
				calculated_at = NOW();
		END;
		$$ LANGUAGE plpgsql;
	`).Error; err != nil {
		s.log.Error("Failed to install calculate_portfolio_metrics", "error", err)
		return fmt.Errorf("install calculate_portfolio_metrics: %w", err)
	}

	if err := s.db.Exec(`
		CREATE OR REPLACE VIEW top_portfolios AS
		SELECT p.portfolio_id,
		       p.user_id,
		       u.nome,
		       m.secoes_completas,
		       m.keyword_total,
		       m.indice_qualidade,
		       p.created_at
		FROM portfolios p
		JOIN users u ON u.user_id = p.user_id
		JOIN portfolio_metrics m ON m.portfolio_id = p.portfolio_id
		ORDER BY m.indice_qualidade DESC;
	`).Error; err != nil {
		s.log.Error("Failed to install top_portfolios view", "error", err)
		return fmt.Errorf("install top_portfolios view: %w", err)
	}

	return nil
}
