package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/hubfolio/hubfolio-backend/internal/types"
)

const validBatch = `[
  {
    "user_id": 1,
    "nome": "Ana Silva",
    "secoes_preenchidas": {"bio": true, "projetos_min": 4, "habilidades_min": 6, "contatos": true},
    "palavras_chave_clareza": {"contexto": 3, "processo": 3, "resultado": 3},
    "consistencia_visual_score": 85.0
  },
  {
    "user_id": 2,
    "nome": "Bruno Costa",
    "secoes_preenchidas": {"bio": false, "projetos_min": 1, "habilidades_min": 2, "contatos": false},
    "palavras_chave_clareza": {"contexto": 1, "processo": 0, "resultado": 1},
    "consistencia_visual_score": 40.0
  }
]`

func newETLFixture(t *testing.T) (*fakeObjectStore, *fakeUserRepo, *fakePortfolioRepo, ETLService) {
	t.Helper()
	store := newFakeObjectStore()
	users := newFakeUserRepo()
	portfolios := newFakePortfolioRepo()
	svc := NewETLService(testLogger(t), store, users, portfolios)
	return store, users, portfolios, svc
}

func TestETLRunHappyPath(t *testing.T) {
	store, _, portfolios, svc := newETLFixture(t)
	store.objects[DefaultBatchObjectKey] = []byte(validBatch)

	stats, err := svc.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Status != types.BatchStatusSuccess {
		t.Fatalf("status: want=%q got=%q", types.BatchStatusSuccess, stats.Status)
	}
	if stats.UsersInserted != 2 {
		t.Fatalf("users inserted: want=2 got=%d", stats.UsersInserted)
	}
	if stats.PortfoliosInserted != 2 {
		t.Fatalf("portfolios inserted: want=2 got=%d", stats.PortfoliosInserted)
	}
	if stats.MetricsCalculated != 2 {
		t.Fatalf("metrics calculated: want=2 got=%d", stats.MetricsCalculated)
	}
	if stats.Errors != 0 {
		t.Fatalf("errors: want=0 got=%d", stats.Errors)
	}
	if portfolios.metricsCalls != 2 {
		t.Fatalf("metrics calls: want=2 got=%d", portfolios.metricsCalls)
	}
}

func TestETLRunTwiceUpsertsUsersButDuplicatesPortfolios(t *testing.T) {
	store, users, portfolios, svc := newETLFixture(t)
	store.objects[DefaultBatchObjectKey] = []byte(validBatch)

	if _, err := svc.Run(context.Background(), ""); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	stats, err := svc.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	// Users go through the conflict-updating upsert both times; portfolios
	// are insert-only, so the same payload lands twice as distinct rows.
	if users.upsertCalls != 4 {
		t.Fatalf("upsert calls: want=4 got=%d", users.upsertCalls)
	}
	if portfolios.createCalls != 4 {
		t.Fatalf("portfolio creates: want=4 got=%d", portfolios.createCalls)
	}
	if stats.Errors != 0 {
		t.Fatalf("second run errors: want=0 got=%d", stats.Errors)
	}
	if stats.UsersInserted != 2 || stats.PortfoliosInserted != 2 {
		t.Fatalf("second run counts: got users=%d portfolios=%d", stats.UsersInserted, stats.PortfoliosInserted)
	}
	if portfolios.nextID != 4 {
		t.Fatalf("distinct portfolio rows: want=4 got=%d", portfolios.nextID)
	}
}

func TestETLRunMissingObjectIsExtractionFailure(t *testing.T) {
	_, users, _, svc := newETLFixture(t)

	stats, err := svc.Run(context.Background(), "hubfolio/data/missing.json")
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("Run error: want=ExtractionError got=%v", err)
	}
	if stats == nil {
		t.Fatalf("Run: stats must be returned on failure")
	}
	if stats.Status != types.BatchStatusFailed {
		t.Fatalf("status: want=%q got=%q", types.BatchStatusFailed, stats.Status)
	}
	if stats.ErrorMessage == "" {
		t.Fatalf("error message: want non-empty")
	}
	if users.upsertCalls != 0 {
		t.Fatalf("upsert calls: want=0 got=%d", users.upsertCalls)
	}
}

func TestETLRunMalformedPayloadIsExtractionFailure(t *testing.T) {
	store, _, _, svc := newETLFixture(t)
	store.objects[DefaultBatchObjectKey] = []byte(`{"not": "an array"}`)

	stats, err := svc.Run(context.Background(), "")
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("Run error: want=ExtractionError got=%v", err)
	}
	if stats.Status != types.BatchStatusFailed {
		t.Fatalf("status: want=%q got=%q", types.BatchStatusFailed, stats.Status)
	}
}

func TestETLRunSkipsInvalidRecordAndContinues(t *testing.T) {
	store, _, _, svc := newETLFixture(t)
	// Second record misses nome and the keyword block entirely.
	store.objects[DefaultBatchObjectKey] = []byte(`[
	  {
	    "user_id": 1,
	    "nome": "Ana Silva",
	    "secoes_preenchidas": {"bio": true, "projetos_min": 4, "habilidades_min": 6, "contatos": true},
	    "palavras_chave_clareza": {"contexto": 3, "processo": 3, "resultado": 3},
	    "consistencia_visual_score": 85.0
	  },
	  {"user_id": 99},
	  {
	    "user_id": 3,
	    "nome": "Carla Dias",
	    "secoes_preenchidas": {"bio": true, "projetos_min": 2, "habilidades_min": 3, "contatos": false},
	    "palavras_chave_clareza": {"contexto": 2, "processo": 1, "resultado": 2},
	    "consistencia_visual_score": 60.0
	  }
	]`)

	stats, err := svc.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Status != types.BatchStatusSuccess {
		t.Fatalf("status: want=%q got=%q", types.BatchStatusSuccess, stats.Status)
	}
	if stats.Errors != 1 {
		t.Fatalf("errors: want=1 got=%d", stats.Errors)
	}
	if stats.PortfoliosInserted != 2 {
		t.Fatalf("portfolios inserted: want=2 got=%d", stats.PortfoliosInserted)
	}
	if len(stats.Failures) != 1 {
		t.Fatalf("failures: want=1 got=%d", len(stats.Failures))
	}
	if stats.Failures[0].Index != 1 || stats.Failures[0].UserID != 99 {
		t.Fatalf("failure record: got=%+v", stats.Failures[0])
	}
}

func TestETLRunMetricsFailureCountsErrorButKeepsPortfolio(t *testing.T) {
	store, _, portfolios, svc := newETLFixture(t)
	store.objects[DefaultBatchObjectKey] = []byte(validBatch)
	portfolios.metricsErrAt[1] = errors.New("function calculate_portfolio_metrics does not exist")

	stats, err := svc.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Errors != 1 {
		t.Fatalf("errors: want=1 got=%d", stats.Errors)
	}
	if stats.PortfoliosInserted != 2 {
		t.Fatalf("portfolios inserted: want=2 got=%d", stats.PortfoliosInserted)
	}
	if stats.MetricsCalculated != 1 {
		t.Fatalf("metrics calculated: want=1 got=%d", stats.MetricsCalculated)
	}
	if stats.MetricsCalculated > stats.PortfoliosInserted {
		t.Fatalf("metrics may never exceed portfolios: %d > %d", stats.MetricsCalculated, stats.PortfoliosInserted)
	}
}

func TestETLRunConnectivityErrorAbortsRun(t *testing.T) {
	store, users, _, svc := newETLFixture(t)
	store.objects[DefaultBatchObjectKey] = []byte(validBatch)
	users.upsertErrAt[2] = driver.ErrBadConn

	stats, err := svc.Run(context.Background(), "")
	if err == nil {
		t.Fatalf("Run: expected error on lost connection")
	}
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("Run error: want wrapped ErrBadConn got=%v", err)
	}
	if stats.Status != types.BatchStatusFailed {
		t.Fatalf("status: want=%q got=%q", types.BatchStatusFailed, stats.Status)
	}
	// The first record landed before the connection dropped.
	if stats.UsersInserted != 1 {
		t.Fatalf("users inserted: want=1 got=%d", stats.UsersInserted)
	}
	if users.upsertCalls != 2 {
		t.Fatalf("upsert calls: want=2 got=%d", users.upsertCalls)
	}
}
