package types

import (
	"time"

	"gorm.io/datatypes"
)

// Prediction is the lineage record linking a scored result back to the
// portfolio and model identity that produced it. Immutable after insert.
type Prediction struct {
	PredictionID        int64          `gorm:"primaryKey;autoIncrement;column:prediction_id" json:"prediction_id"`
	PortfolioID         int64          `gorm:"not null;index;column:portfolio_id" json:"portfolio_id"`
	PredictedIQ         float64        `gorm:"not null;column:predicted_iq" json:"predicted_iq"`
	ModelName           string         `gorm:"not null;column:model_name" json:"model_name"`
	ModelVersion        string         `gorm:"not null;column:model_version" json:"model_version"`
	Classification      string         `gorm:"not null;column:classification" json:"classification"`
	FeedbackSuggestions datatypes.JSON `gorm:"column:feedback_suggestions" json:"feedback_suggestions"`
	CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Prediction) TableName() string {
	return "predictions"
}

// PredictionResult is the caller-facing outcome of one scoring call.
type PredictionResult struct {
	Sucesso         bool      `json:"sucesso"`
	IndiceQualidade float64   `json:"indice_qualidade"`
	Classificacao   string    `json:"classificacao"`
	Feedback        []string  `json:"feedback"`
	ModelName       string    `json:"model_name"`
	ModelVersion    string    `json:"model_version"`
	PredictedAt     time.Time `json:"predicted_at"`
	PortfolioID     int64     `json:"portfolio_id,omitempty"`
	PredictionID    int64     `json:"prediction_id,omitempty"`

	// LineageWarning is set when the prediction row could not be written
	// after the portfolio already committed.
	LineageWarning bool `json:"lineage_warning,omitempty"`
}
