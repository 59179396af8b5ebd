package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/storage"
	"github.com/hubfolio/hubfolio-backend/internal/utils"
)

// PublishResult identifies the tracking run a model artifact was recorded
// under. MetricsPlaceholder is set when the caller supplied no usable
// evaluation metrics and zero-filled ones were logged instead.
type PublishResult struct {
	RunID              string `json:"run_id"`
	ExperimentID       string `json:"experiment_id"`
	ArtifactKey        string `json:"artifact_key"`
	MetricsPlaceholder bool   `json:"metrics_placeholder,omitempty"`
}

type RegistryService interface {
	// Publish records the artifact with its metrics, params and tags as a
	// finished tracking run and stores the artifact bytes alongside it.
	Publish(ctx context.Context, name string, artifact []byte, metrics map[string]float64, params, tags map[string]string) (*PublishResult, error)

	// Promote registers the model (idempotently), creates a version from
	// the given run and transitions it to the stage. Returns the version.
	Promote(ctx context.Context, name, runID, stage, description string) (string, error)

	// Export copies the latest artifact in the stage to a deterministic
	// export key in the object store and returns that key.
	Export(ctx context.Context, name, stage string) (string, error)
}

// RegistryConfig points at an MLflow tracking server.
type RegistryConfig struct {
	BaseURL        string
	ExperimentName string
	Timeout        time.Duration
}

func RegistryConfigFromEnv(log *logger.Logger) RegistryConfig {
	return RegistryConfig{
		BaseURL:        utils.GetEnv("MLFLOW_TRACKING_URI", "", log),
		ExperimentName: utils.GetEnv("MLFLOW_EXPERIMENT_NAME", "hubfolio-quality", log),
		Timeout:        time.Duration(utils.GetEnvAsInt("MLFLOW_TIMEOUT_SECONDS", 10, log)) * time.Second,
	}
}

func (c RegistryConfig) Configured() bool {
	return c.BaseURL != ""
}

type mlflowRegistry struct {
	log        *logger.Logger
	cfg        RegistryConfig
	store      storage.ObjectStore
	httpClient *http.Client
}

func NewMLflowRegistry(baseLog *logger.Logger, cfg RegistryConfig, store storage.ObjectStore) RegistryService {
	clientLog := baseLog.With("client", "MLflow")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &mlflowRegistry{
		log:        clientLog,
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func runArtifactKey(runID string) string {
	return fmt.Sprintf("mlflow/runs/%s/artifacts/model/model.json", runID)
}

func (r *mlflowRegistry) Publish(ctx context.Context, name string, artifact []byte, metrics map[string]float64, params, tags map[string]string) (*PublishResult, error) {
	experimentID, err := r.ensureExperiment(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	var createResp struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	err = r.post(ctx, "/api/2.0/mlflow/runs/create", map[string]interface{}{
		"experiment_id": experimentID,
		"start_time":    now,
	}, &createResp)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	runID := createResp.Run.Info.RunID

	sanitized, placeholder := sanitizeMetrics(metrics)
	if placeholder {
		r.log.Warn("Publishing with placeholder metrics", "model_name", name, "run_id", runID)
	}

	type kv struct {
		Key   string `json:"key"`
		Value string `json:"value,omitempty"`
	}
	batch := struct {
		RunID   string `json:"run_id"`
		Metrics []struct {
			Key       string  `json:"key"`
			Value     float64 `json:"value"`
			Timestamp int64   `json:"timestamp"`
		} `json:"metrics"`
		Params []kv `json:"params"`
		Tags   []kv `json:"tags"`
	}{RunID: runID}
	for k, v := range sanitized {
		batch.Metrics = append(batch.Metrics, struct {
			Key       string  `json:"key"`
			Value     float64 `json:"value"`
			Timestamp int64   `json:"timestamp"`
		}{Key: k, Value: v, Timestamp: now})
	}
	for k, v := range params {
		batch.Params = append(batch.Params, kv{Key: k, Value: v})
	}
	for k, v := range tags {
		batch.Tags = append(batch.Tags, kv{Key: k, Value: v})
	}
	batch.Tags = append(batch.Tags, kv{Key: "model_name", Value: name})

	if err := r.post(ctx, "/api/2.0/mlflow/runs/log-batch", batch, nil); err != nil {
		return nil, fmt.Errorf("log run data: %w", err)
	}

	artifactKey := runArtifactKey(runID)
	if err := r.store.Put(ctx, artifactKey, artifact, "application/json"); err != nil {
		return nil, fmt.Errorf("store model artifact: %w", err)
	}

	err = r.post(ctx, "/api/2.0/mlflow/runs/update", map[string]interface{}{
		"run_id":   runID,
		"status":   "FINISHED",
		"end_time": time.Now().UnixMilli(),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}

	r.log.Info("Model published", "model_name", name, "run_id", runID, "experiment_id", experimentID)
	return &PublishResult{
		RunID:              runID,
		ExperimentID:       experimentID,
		ArtifactKey:        artifactKey,
		MetricsPlaceholder: placeholder,
	}, nil
}

func (r *mlflowRegistry) Promote(ctx context.Context, name, runID, stage, description string) (string, error) {
	// create is idempotent here: an existing registered model is fine.
	err := r.post(ctx, "/api/2.0/mlflow/registered-models/create", map[string]interface{}{
		"name": name,
	}, nil)
	if err != nil && !isAlreadyExists(err) {
		return "", fmt.Errorf("register model: %w", err)
	}

	var versionResp struct {
		ModelVersion struct {
			Version string `json:"version"`
		} `json:"model_version"`
	}
	err = r.post(ctx, "/api/2.0/mlflow/model-versions/create", map[string]interface{}{
		"name":        name,
		"run_id":      runID,
		"source":      fmt.Sprintf("runs:/%s/model", runID),
		"description": description,
	}, &versionResp)
	if err != nil {
		return "", fmt.Errorf("create model version: %w", err)
	}
	version := versionResp.ModelVersion.Version

	err = r.post(ctx, "/api/2.0/mlflow/model-versions/transition-stage", map[string]interface{}{
		"name":                      name,
		"version":                   version,
		"stage":                     stage,
		"archive_existing_versions": true,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("transition to stage %s: %w", stage, err)
	}

	r.log.Info("Model promoted", "model_name", name, "version", version, "stage", stage)
	return version, nil
}

func (r *mlflowRegistry) Export(ctx context.Context, name, stage string) (string, error) {
	var latestResp struct {
		ModelVersions []struct {
			Version string `json:"version"`
			RunID   string `json:"run_id"`
		} `json:"model_versions"`
	}
	err := r.post(ctx, "/api/2.0/mlflow/registered-models/get-latest-versions", map[string]interface{}{
		"name":   name,
		"stages": []string{stage},
	}, &latestResp)
	if err != nil {
		return "", fmt.Errorf("query latest versions: %w", err)
	}
	if len(latestResp.ModelVersions) == 0 {
		return "", &NoSuchVersionError{Name: name, Stage: stage}
	}
	latest := latestResp.ModelVersions[0]

	artifact, err := r.store.Get(ctx, runArtifactKey(latest.RunID))
	if err != nil {
		return "", fmt.Errorf("read artifact for run %s: %w", latest.RunID, err)
	}

	ts := time.Now().UTC().Format("20060102_150405")
	exportKey := fmt.Sprintf("models/%s/v%s/%s_v%s_%s.json", name, latest.Version, name, latest.Version, ts)
	if err := r.store.Put(ctx, exportKey, artifact, "application/json"); err != nil {
		return "", fmt.Errorf("write export object: %w", err)
	}

	r.log.Info("Model exported", "model_name", name, "version", latest.Version, "stage", stage, "key", exportKey)
	return exportKey, nil
}

func (r *mlflowRegistry) ensureExperiment(ctx context.Context) (string, error) {
	var getResp struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	err := r.get(ctx, "/api/2.0/mlflow/experiments/get-by-name?experiment_name="+r.cfg.ExperimentName, &getResp)
	if err == nil {
		return getResp.Experiment.ExperimentID, nil
	}
	if !isNotFoundStatus(err) {
		return "", fmt.Errorf("look up experiment: %w", err)
	}

	var createResp struct {
		ExperimentID string `json:"experiment_id"`
	}
	err = r.post(ctx, "/api/2.0/mlflow/experiments/create", map[string]interface{}{
		"name": r.cfg.ExperimentName,
	}, &createResp)
	if err != nil {
		return "", fmt.Errorf("create experiment: %w", err)
	}
	return createResp.ExperimentID, nil
}

// apiError carries the tracking server's status and error code so callers can
// branch on RESOURCE_ALREADY_EXISTS / RESOURCE_DOES_NOT_EXIST.
type apiError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("tracking server returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func isAlreadyExists(err error) bool {
	apiErr, ok := err.(*apiError)
	return ok && apiErr.Code == "RESOURCE_ALREADY_EXISTS"
}

func isNotFoundStatus(err error) bool {
	apiErr, ok := err.(*apiError)
	return ok && (apiErr.StatusCode == http.StatusNotFound || apiErr.Code == "RESOURCE_DOES_NOT_EXIST")
}

func (r *mlflowRegistry) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req, out)
}

func (r *mlflowRegistry) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return r.do(req, out)
}

func (r *mlflowRegistry) do(req *http.Request, out interface{}) error {
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			ErrorCode string `json:"error_code"`
			Message   string `json:"message"`
		}
		_ = json.Unmarshal(data, &errBody)
		return &apiError{StatusCode: resp.StatusCode, Code: errBody.ErrorCode, Message: errBody.Message}
	}
	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

// sanitizeMetrics drops non-finite values and substitutes an explicit
// zero-filled placeholder when nothing usable remains, so a run is never
// logged without evaluation metrics.
func sanitizeMetrics(metrics map[string]float64) (map[string]float64, bool) {
	out := make(map[string]float64, len(metrics))
	placeholder := false
	for k, v := range metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			placeholder = true
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return map[string]float64{"r2_score": 0, "rmse": 0}, true
	}
	return out, placeholder
}
