package types

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeBatchRejectsNonArray(t *testing.T) {
	_, err := DecodeBatch([]byte(`{"user_id": 1}`))
	if err == nil {
		t.Fatalf("DecodeBatch: expected error for non-array payload")
	}
}

func TestBatchRecordValidateCollectsAllMissingFields(t *testing.T) {
	userID := int64(1)
	rec := &BatchRecord{UserID: &userID}

	_, _, err := rec.Validate()
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Validate error: want=ValidationError got=%v", err)
	}
	for _, field := range []string{"nome", "secoes_preenchidas", "palavras_chave_clareza", "consistencia_visual_score"} {
		found := false
		for _, m := range valErr.Missing {
			if m == field {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing fields: %q not reported in %v", field, valErr.Missing)
		}
	}
	if !strings.Contains(err.Error(), "campos obrigatórios faltando") {
		t.Fatalf("error message: got=%q", err.Error())
	}
}

func TestBatchRecordValidateReportsNestedFields(t *testing.T) {
	userID := int64(1)
	nome := "Ana"
	visual := 80.0
	boolTrue := true
	projetos := 3
	rec := &BatchRecord{
		UserID: &userID,
		Nome:   &nome,
		SecoesPreenchidas: &BatchSections{
			Bio:         &boolTrue,
			ProjetosMin: &projetos,
			// habilidades_min and contatos left out
		},
		PalavrasChaveClareza:    &BatchKeywords{},
		ConsistenciaVisualScore: &visual,
	}

	_, _, err := rec.Validate()
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Validate error: want=ValidationError got=%v", err)
	}
	want := []string{
		"secoes_preenchidas.habilidades_min",
		"secoes_preenchidas.contatos",
		"palavras_chave_clareza.contexto",
		"palavras_chave_clareza.processo",
		"palavras_chave_clareza.resultado",
	}
	if len(valErr.Missing) != len(want) {
		t.Fatalf("missing fields: want=%v got=%v", want, valErr.Missing)
	}
}

func TestBatchRecordValidateMapsRows(t *testing.T) {
	data := []byte(`[{
		"user_id": 7,
		"nome": "Ana Silva",
		"secoes_preenchidas": {"bio": true, "projetos_min": 4, "habilidades_min": 6, "contatos": false},
		"palavras_chave_clareza": {"contexto": 3, "processo": 2, "resultado": 1},
		"consistencia_visual_score": 85.5
	}]`)
	records, err := DecodeBatch(data)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records: want=1 got=%d", len(records))
	}

	user, portfolio, err := records[0].Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if user.UserID != 7 || user.Nome != "Ana Silva" {
		t.Fatalf("user row: got=%+v", user)
	}
	if portfolio.UserID != 7 {
		t.Fatalf("portfolio user id: want=7 got=%d", portfolio.UserID)
	}
	if !portfolio.Bio || portfolio.Contatos {
		t.Fatalf("portfolio booleans: got bio=%v contatos=%v", portfolio.Bio, portfolio.Contatos)
	}
	if portfolio.KwContexto != 3 || portfolio.KwProcesso != 2 || portfolio.KwResultado != 1 {
		t.Fatalf("keyword counts: got=%+v", portfolio)
	}
	if portfolio.ConsistenciaVisualScore != 85.5 {
		t.Fatalf("visual score: want=85.5 got=%v", portfolio.ConsistenciaVisualScore)
	}
}

func TestBatchRecordValidateAllowsZeroValues(t *testing.T) {
	data := []byte(`[{
		"user_id": 1,
		"nome": "Zero",
		"secoes_preenchidas": {"bio": false, "projetos_min": 0, "habilidades_min": 0, "contatos": false},
		"palavras_chave_clareza": {"contexto": 0, "processo": 0, "resultado": 0},
		"consistencia_visual_score": 0
	}]`)
	records, err := DecodeBatch(data)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if _, _, err := records[0].Validate(); err != nil {
		t.Fatalf("Validate: zero values must be valid, got %v", err)
	}
}
