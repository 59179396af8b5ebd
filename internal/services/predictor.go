package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

// FeatureNames is the exact order the regression model was trained with.
var FeatureNames = []string{
	"projetos_min",
	"habilidades_min",
	"kw_contexto",
	"kw_processo",
	"kw_resultado",
	"consistencia_visual_score",
	"bio",
	"contatos",
}

// Model is the opaque scoring function. Implementations receive the feature
// vector in FeatureNames order and return a raw, unclamped quality index.
type Model interface {
	Predict(features []float64) (float64, error)
}

// LinearModel is the shipped regression artifact: a JSON document with an
// intercept and one coefficient per feature.
type LinearModel struct {
	ModelName    string    `json:"model_name"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func LoadLinearModel(data []byte) (*LinearModel, error) {
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if len(m.Coefficients) != len(FeatureNames) {
		return nil, fmt.Errorf("model artifact has %d coefficients, want %d", len(m.Coefficients), len(FeatureNames))
	}
	if m.ModelName == "" {
		m.ModelName = "LinearRegression"
	}
	return &m, nil
}

func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("feature vector has %d values, want %d", len(features), len(m.Coefficients))
	}
	out := m.Intercept
	for i, c := range m.Coefficients {
		out += c * features[i]
	}
	return out, nil
}

const (
	ClassExcelente       = "Excelente"
	ClassBom             = "Bom"
	ClassRegular         = "Regular"
	ClassPrecisaMelhorar = "Precisa Melhorar"
)

// Predictor holds the currently loaded model; Swap allows hot replacement
// through the model upload flow.
type Predictor struct {
	log *logger.Logger

	mu        sync.RWMutex
	model     Model
	modelName string
}

func NewPredictor(log *logger.Logger) *Predictor {
	return &Predictor{log: log.With("service", "Predictor")}
}

// LoadFromFile loads a serialized LinearModel artifact from disk. A missing
// file is not an error at startup: scoring stays unavailable until a model
// is uploaded.
func (p *Predictor) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model artifact %s: %w", path, err)
	}
	model, err := LoadLinearModel(data)
	if err != nil {
		return err
	}
	p.Swap(model, model.ModelName)
	p.log.Info("Model loaded", "path", path, "model_name", model.ModelName)
	return nil
}

func (p *Predictor) Swap(model Model, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = model
	p.modelName = name
}

func (p *Predictor) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model != nil
}

func (p *Predictor) ModelName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.modelName == "" {
		return "LinearRegression"
	}
	return p.modelName
}

func (p *Predictor) ModelVersion() string {
	return p.ModelName() + "_v1"
}

// Predict runs the loaded model over the resolved features and clamps the
// output to the quality-index range.
func (p *Predictor) Predict(features *types.FeatureSet) (float64, error) {
	p.mu.RLock()
	model := p.model
	p.mu.RUnlock()

	if model == nil {
		return 0, &ModelUnavailableError{}
	}
	raw, err := model.Predict(features.Vector())
	if err != nil {
		return 0, fmt.Errorf("model inference: %w", err)
	}
	return clamp(raw, 0, 100), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Classify buckets a clamped quality index; boundaries are inclusive on the
// lower edge of each bucket.
func Classify(iq float64) string {
	switch {
	case iq >= 80:
		return ClassExcelente
	case iq >= 60:
		return ClassBom
	case iq >= 40:
		return ClassRegular
	default:
		return ClassPrecisaMelhorar
	}
}

// GenerateFeedback applies the improvement rules in fixed order; when none
// fires the single affirmative message is returned.
func GenerateFeedback(features *types.FeatureSet) []string {
	var sugestoes []string

	if features.ProjetosMin < 3 {
		sugestoes = append(sugestoes, "Adicione mais projetos ao seu portfólio (mínimo 3 recomendado)")
	}
	if features.HabilidadesMin < 5 {
		sugestoes = append(sugestoes, "Liste mais habilidades técnicas (mínimo 5)")
	}
	if !features.Bio {
		sugestoes = append(sugestoes, "Adicione uma bio/sobre você")
	}
	if !features.Contatos {
		sugestoes = append(sugestoes, "Inclua informações de contato")
	}
	if features.KwContexto+features.KwProcesso+features.KwResultado < 9 {
		sugestoes = append(sugestoes, "Melhore a narrativa dos projetos (contexto, processo, resultado)")
	}
	if features.ConsistenciaVisualScore < 70 {
		sugestoes = append(sugestoes, "Trabalhe na consistência visual do portfólio")
	}

	if len(sugestoes) == 0 {
		return []string{"Seu portfólio está bem estruturado!"}
	}
	return sugestoes
}
