package types

import (
	"fmt"
	"strings"
)

// ValidationError lists every required field the caller left out.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("campos obrigatórios faltando: [%s]", strings.Join(e.Missing, ", "))
}

// PortfolioSubmission is the flat interactive-scoring input. Pointer fields
// keep absent keys detectable so validation can name them.
type PortfolioSubmission struct {
	UserID                  *int64   `json:"user_id"`
	ProjetosMin             *int     `json:"projetos_min"`
	HabilidadesMin          *int     `json:"habilidades_min"`
	KwContexto              *int     `json:"kw_contexto"`
	KwProcesso              *int     `json:"kw_processo"`
	KwResultado             *int     `json:"kw_resultado"`
	ConsistenciaVisualScore *float64 `json:"consistencia_visual_score"`
	Bio                     *bool    `json:"bio"`
	Contatos                *bool    `json:"contatos"`
}

// FeatureSet is a fully resolved submission: every feature present and typed.
type FeatureSet struct {
	UserID                  int64
	ProjetosMin             int
	HabilidadesMin          int
	KwContexto              int
	KwProcesso              int
	KwResultado             int
	ConsistenciaVisualScore float64
	Bio                     bool
	Contatos                bool
}

// Validate is the single decode boundary for submissions: it either yields a
// complete FeatureSet or a ValidationError naming the missing fields.
func (s *PortfolioSubmission) Validate() (*FeatureSet, error) {
	var missing []string
	if s.UserID == nil {
		missing = append(missing, "user_id")
	}
	if s.ProjetosMin == nil {
		missing = append(missing, "projetos_min")
	}
	if s.HabilidadesMin == nil {
		missing = append(missing, "habilidades_min")
	}
	if s.KwContexto == nil {
		missing = append(missing, "kw_contexto")
	}
	if s.KwProcesso == nil {
		missing = append(missing, "kw_processo")
	}
	if s.KwResultado == nil {
		missing = append(missing, "kw_resultado")
	}
	if s.ConsistenciaVisualScore == nil {
		missing = append(missing, "consistencia_visual_score")
	}
	if s.Bio == nil {
		missing = append(missing, "bio")
	}
	if s.Contatos == nil {
		missing = append(missing, "contatos")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	return &FeatureSet{
		UserID:                  *s.UserID,
		ProjetosMin:             *s.ProjetosMin,
		HabilidadesMin:          *s.HabilidadesMin,
		KwContexto:              *s.KwContexto,
		KwProcesso:              *s.KwProcesso,
		KwResultado:             *s.KwResultado,
		ConsistenciaVisualScore: *s.ConsistenciaVisualScore,
		Bio:                     *s.Bio,
		Contatos:                *s.Contatos,
	}, nil
}

// Portfolio maps the resolved features onto a new portfolio row.
func (f *FeatureSet) Portfolio() *Portfolio {
	return &Portfolio{
		UserID:                  f.UserID,
		Bio:                     f.Bio,
		ProjetosMin:             f.ProjetosMin,
		HabilidadesMin:          f.HabilidadesMin,
		Contatos:                f.Contatos,
		KwContexto:              f.KwContexto,
		KwProcesso:              f.KwProcesso,
		KwResultado:             f.KwResultado,
		ConsistenciaVisualScore: f.ConsistenciaVisualScore,
	}
}

// Vector lays the features out in the order the regression model was trained
// with. Booleans become 0/1.
func (f *FeatureSet) Vector() []float64 {
	b2f := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}
	return []float64{
		float64(f.ProjetosMin),
		float64(f.HabilidadesMin),
		float64(f.KwContexto),
		float64(f.KwProcesso),
		float64(f.KwResultado),
		f.ConsistenciaVisualScore,
		b2f(f.Bio),
		b2f(f.Contatos),
	}
}
