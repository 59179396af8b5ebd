package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"

	"gorm.io/gorm"
)

// ExtractionError is fatal for a batch run: the payload could not be
// retrieved or decoded, so no record was processed.
type ExtractionError struct {
	Key string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %q: %v", e.Key, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RecordError is non-fatal: the record is counted and skipped while the run
// continues.
type RecordError struct {
	Index  int
	UserID int64
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (user_id=%d): %v", e.Index, e.UserID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// UnknownUserError means the scoring precondition failed; nothing was
// written.
type UnknownUserError struct {
	UserID int64
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("usuário com ID %d não encontrado", e.UserID)
}

// ModelUnavailableError is raised before any database work when no scoring
// model is loaded.
type ModelUnavailableError struct{}

func (e *ModelUnavailableError) Error() string {
	return "modelo de ML não está carregado"
}

// PersistenceError wraps a failure inside the portfolio+metrics transaction;
// the transaction was rolled back in full.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("erro ao persistir portfólio: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LineageWriteError records a failed prediction insert after the portfolio
// already committed. It is logged and surfaced as a warning flag, never as a
// call failure.
type LineageWriteError struct {
	PortfolioID int64
	Err         error
}

func (e *LineageWriteError) Error() string {
	return fmt.Sprintf("erro ao salvar predição do portfólio %d: %v", e.PortfolioID, e.Err)
}

func (e *LineageWriteError) Unwrap() error { return e.Err }

// NoSuchVersionError means the registry holds no model version in the
// requested stage.
type NoSuchVersionError struct {
	Name  string
	Stage string
}

func (e *NoSuchVersionError) Error() string {
	return fmt.Sprintf("no version of model %q in stage %q", e.Name, e.Stage)
}

// isConnectivityError separates infrastructure failures, which abort a batch
// run, from per-record failures, which are counted and skipped.
func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
