package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/services"
	"github.com/hubfolio/hubfolio-backend/internal/storage"
)

type stubObjectStore struct {
	objects map[string][]byte
	putErr  error
}

func newStubObjectStore() *stubObjectStore {
	return &stubObjectStore{objects: map[string][]byte{}}
}

func (s *stubObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (s *stubObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = data
	return nil
}

func (s *stubObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *stubObjectStore) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *stubObjectStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (s *stubObjectStore) Remove(ctx context.Context, key string) error { return nil }

func (s *stubObjectStore) EnsureBucket(ctx context.Context) error { return nil }

func (s *stubObjectStore) Ping(ctx context.Context) bool { return true }

const ingestDataset = `[{
	"user_id": 1,
	"nome": "Ana Silva",
	"secoes_preenchidas": {"bio": true, "projetos_min": 4, "habilidades_min": 6, "contatos": true},
	"palavras_chave_clareza": {"contexto": 3, "processo": 3, "resultado": 3},
	"consistencia_visual_score": 85.0
}]`

func performIngest(t *testing.T, store storage.ObjectStore, datasetPath string) *httptest.ResponseRecorder {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/ingest/hubfolio", NewIngestHandler(log, store, datasetPath).IngestHubfolio)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/hubfolio", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIngestPublishesDatasetUnderBatchKey(t *testing.T) {
	datasetPath := filepath.Join(t.TempDir(), "portfolios.json")
	if err := os.WriteFile(datasetPath, []byte(ingestDataset), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	store := newStubObjectStore()

	rec := performIngest(t, store, datasetPath)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if string(store.objects[services.DefaultBatchObjectKey]) != ingestDataset {
		t.Fatalf("stored payload does not match dataset")
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["key"] != services.DefaultBatchObjectKey {
		t.Fatalf("key: want=%q got=%v", services.DefaultBatchObjectKey, body["key"])
	}
	if body["records"] != float64(1) {
		t.Fatalf("records: want=1 got=%v", body["records"])
	}
}

func TestIngestMissingDatasetIs404(t *testing.T) {
	store := newStubObjectStore()

	rec := performIngest(t, store, filepath.Join(t.TempDir(), "absent.json"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", rec.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != "dataset_not_found" {
		t.Fatalf("error code: want=%q got=%q", "dataset_not_found", envelope.Error.Code)
	}
	if len(store.objects) != 0 {
		t.Fatalf("no object should be stored on failure")
	}
}

func TestIngestMalformedDatasetIs400(t *testing.T) {
	datasetPath := filepath.Join(t.TempDir(), "portfolios.json")
	if err := os.WriteFile(datasetPath, []byte(`{"not":"an array"}`), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	store := newStubObjectStore()

	rec := performIngest(t, store, datasetPath)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != "invalid_dataset" {
		t.Fatalf("error code: want=%q got=%q", "invalid_dataset", envelope.Error.Code)
	}
	if len(store.objects) != 0 {
		t.Fatalf("no object should be stored on failure")
	}
}
