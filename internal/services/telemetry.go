package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/types"
	"github.com/hubfolio/hubfolio-backend/internal/utils"
)

// DeliveryResult reports whether a telemetry payload reached the platform.
// Forwarding is best effort: a failed delivery is a reason string, never an
// error the scoring path has to handle.
type DeliveryResult struct {
	Delivered bool
	Reason    string
}

func suppressed(format string, args ...interface{}) DeliveryResult {
	return DeliveryResult{Delivered: false, Reason: fmt.Sprintf(format, args...)}
}

type TelemetryForwarder interface {
	ForwardPrediction(ctx context.Context, userID int64, result *types.PredictionResult) DeliveryResult
}

// ThingsBoardConfig holds the device-token HTTP telemetry settings.
type ThingsBoardConfig struct {
	BaseURL     string
	DeviceToken string
	Timeout     time.Duration
}

func ThingsBoardConfigFromEnv(log *logger.Logger) ThingsBoardConfig {
	return ThingsBoardConfig{
		BaseURL:     utils.GetEnv("THINGSBOARD_URL", "", log),
		DeviceToken: utils.GetEnv("THINGSBOARD_DEVICE_TOKEN", "", log),
		Timeout:     time.Duration(utils.GetEnvAsInt("THINGSBOARD_TIMEOUT_SECONDS", 5, log)) * time.Second,
	}
}

// Configured reports whether enough settings exist to forward at all. An
// unconfigured forwarder should simply not be wired in.
func (c ThingsBoardConfig) Configured() bool {
	return c.BaseURL != "" && c.DeviceToken != ""
}

type thingsboardForwarder struct {
	log        *logger.Logger
	cfg        ThingsBoardConfig
	httpClient *http.Client
}

func NewThingsBoardForwarder(baseLog *logger.Logger, cfg ThingsBoardConfig) TelemetryForwarder {
	clientLog := baseLog.With("client", "ThingsBoard")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &thingsboardForwarder{
		log:        clientLog,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (f *thingsboardForwarder) ForwardPrediction(ctx context.Context, userID int64, result *types.PredictionResult) DeliveryResult {
	payload := map[string]interface{}{
		"user_id":          userID,
		"portfolio_id":     result.PortfolioID,
		"prediction_id":    result.PredictionID,
		"indice_qualidade": result.IndiceQualidade,
		"classificacao":    result.Classificacao,
		"model_name":       result.ModelName,
		"model_version":    result.ModelVersion,
		"feedback_count":   len(result.Feedback),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return suppressed("marshal telemetry payload: %v", err)
	}

	url := fmt.Sprintf("%s/api/v1/%s/telemetry", f.cfg.BaseURL, f.cfg.DeviceToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return suppressed("build telemetry request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return suppressed("telemetry request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return suppressed("telemetry rejected with status %d", resp.StatusCode)
	}
	f.log.Debug("Telemetry delivered", "user_id", userID, "portfolio_id", result.PortfolioID)
	return DeliveryResult{Delivered: true}
}
