package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BatchSections mirrors the secoes_preenchidas object of the batch payload.
type BatchSections struct {
	Bio            *bool `json:"bio"`
	ProjetosMin    *int  `json:"projetos_min"`
	HabilidadesMin *int  `json:"habilidades_min"`
	Contatos       *bool `json:"contatos"`
}

// BatchKeywords mirrors the palavras_chave_clareza object of the batch payload.
type BatchKeywords struct {
	Contexto  *int `json:"contexto"`
	Processo  *int `json:"processo"`
	Resultado *int `json:"resultado"`
}

// BatchRecord is one element of the portfolio dataset. All fields are
// pointers so a missing key is distinguishable from a zero value; Validate
// turns a record into a well-typed Portfolio or a descriptive error.
type BatchRecord struct {
	UserID                  *int64         `json:"user_id"`
	Nome                    *string        `json:"nome"`
	SecoesPreenchidas       *BatchSections `json:"secoes_preenchidas"`
	PalavrasChaveClareza    *BatchKeywords `json:"palavras_chave_clareza"`
	ConsistenciaVisualScore *float64       `json:"consistencia_visual_score"`
}

// DecodeBatch parses the raw batch payload. A payload that is not a JSON
// array of records is a batch-level failure; per-record field validation is
// deferred to BatchRecord.Validate so one bad record cannot abort the run.
func DecodeBatch(data []byte) ([]BatchRecord, error) {
	var records []BatchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode batch payload: %w", err)
	}
	return records, nil
}

// Validate reports every missing field at once and, on success, returns the
// user row and portfolio row the record maps to.
func (r *BatchRecord) Validate() (*User, *Portfolio, error) {
	var missing []string
	if r.UserID == nil {
		missing = append(missing, "user_id")
	}
	if r.Nome == nil {
		missing = append(missing, "nome")
	}
	if r.SecoesPreenchidas == nil {
		missing = append(missing, "secoes_preenchidas")
	} else {
		if r.SecoesPreenchidas.Bio == nil {
			missing = append(missing, "secoes_preenchidas.bio")
		}
		if r.SecoesPreenchidas.ProjetosMin == nil {
			missing = append(missing, "secoes_preenchidas.projetos_min")
		}
		if r.SecoesPreenchidas.HabilidadesMin == nil {
			missing = append(missing, "secoes_preenchidas.habilidades_min")
		}
		if r.SecoesPreenchidas.Contatos == nil {
			missing = append(missing, "secoes_preenchidas.contatos")
		}
	}
	if r.PalavrasChaveClareza == nil {
		missing = append(missing, "palavras_chave_clareza")
	} else {
		if r.PalavrasChaveClareza.Contexto == nil {
			missing = append(missing, "palavras_chave_clareza.contexto")
		}
		if r.PalavrasChaveClareza.Processo == nil {
			missing = append(missing, "palavras_chave_clareza.processo")
		}
		if r.PalavrasChaveClareza.Resultado == nil {
			missing = append(missing, "palavras_chave_clareza.resultado")
		}
	}
	if r.ConsistenciaVisualScore == nil {
		missing = append(missing, "consistencia_visual_score")
	}
	if len(missing) > 0 {
		return nil, nil, &ValidationError{Missing: missing}
	}

	user := &User{
		UserID: *r.UserID,
		Nome:   *r.Nome,
	}
	portfolio := &Portfolio{
		UserID:                  *r.UserID,
		Bio:                     *r.SecoesPreenchidas.Bio,
		ProjetosMin:             *r.SecoesPreenchidas.ProjetosMin,
		HabilidadesMin:          *r.SecoesPreenchidas.HabilidadesMin,
		Contatos:                *r.SecoesPreenchidas.Contatos,
		KwContexto:              *r.PalavrasChaveClareza.Contexto,
		KwProcesso:              *r.PalavrasChaveClareza.Processo,
		KwResultado:             *r.PalavrasChaveClareza.Resultado,
		ConsistenciaVisualScore: *r.ConsistenciaVisualScore,
	}
	return user, portfolio, nil
}

const (
	BatchStatusSuccess = "success"
	BatchStatusFailed  = "failed"
)

// RecordFailure keeps the cause of one skipped record for the run report.
type RecordFailure struct {
	Index  int    `json:"index"`
	UserID int64  `json:"user_id,omitempty"`
	Cause  string `json:"cause"`
}

// BatchStats is owned by a single loader run and discarded after being
// returned to the caller; nothing here is persisted by the loader itself.
type BatchStats struct {
	RunID              uuid.UUID       `json:"run_id"`
	UsersInserted      int             `json:"users_inserted"`
	PortfoliosInserted int             `json:"portfolios_inserted"`
	MetricsCalculated  int             `json:"metrics_calculated"`
	Errors             int             `json:"errors"`
	Failures           []RecordFailure `json:"failures,omitempty"`
	StartedAt          time.Time       `json:"started_at"`
	Duration           time.Duration   `json:"-"`
	DurationSeconds    float64         `json:"duration_seconds"`
	Status             string          `json:"status"`
	ErrorMessage       string          `json:"error_message,omitempty"`
}
