package importer

import (
	"errors"
	"fmt"
	"time"
)

// Error codes reported by the import pipeline.
const (
	ErrMissingInput = "MISSING_INPUT"
	ErrParse        = "PARSE_FAILED"
	ErrStoreWrite   = "STORE_WRITE_FAILED"
)

// ImportError is returned for every failure that aborts an import run.
type ImportError struct {
	Code      string
	Message   string
	Timestamp time.Time
	Context   map[string]string
	Err       error
}

func newImportError(code, message string, err error, context map[string]string) *ImportError {
	return &ImportError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   context,
		Err:       err,
	}
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// StoreWriteError wraps a persistence failure so callers can tell it apart
// from load and parse failures.
func StoreWriteError(err error) error {
	if err == nil {
		return nil
	}
	var ie *ImportError
	if errors.As(err, &ie) {
		return err
	}
	return newImportError(ErrStoreWrite, "failed to write database", err, nil)
}

// ErrorCode returns the ImportError code carried by err, or "" if there is none.
func ErrorCode(err error) string {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
