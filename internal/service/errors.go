package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MimeLyc/subtitle-batch-translator/pkg/log"
)

type ErrorType int

const (
	// ErrDecode and ErrMalformedCue name failures the subtitle package
	// absorbs: decoding falls back to Latin-1 and bad cues are skipped,
	// so neither is ever returned.
	ErrDecode ErrorType = iota
	ErrMalformedCue
	ErrReconciliation
	ErrRateLimit
	ErrBatchFatal
	ErrAnalysis
	ErrRevision
	ErrConfig
	ErrFileRead
	ErrFileWrite
	ErrValidation
	ErrUnknown
)

// TransError is the typed error of the translation pipeline. Only
// ErrBatchFatal aborts a file; the other pipeline types are logged and
// absorbed with a fallback.
type TransError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *TransError {
	return &TransError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *TransError {
	return &TransError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *TransError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *TransError) Unwrap() error {
	return e.Cause
}

func (e *TransError) WithContext(key string, value any) *TransError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrDecode:
		return "Decode"
	case ErrMalformedCue:
		return "MalformedCue"
	case ErrReconciliation:
		return "Reconciliation"
	case ErrRateLimit:
		return "RateLimit"
	case ErrBatchFatal:
		return "BatchFatal"
	case ErrAnalysis:
		return "Analysis"
	case ErrRevision:
		return "Revision"
	case ErrConfig:
		return "Config"
	case ErrFileRead:
		return "FileRead"
	case ErrFileWrite:
		return "FileWrite"
	case ErrValidation:
		return "Validation"
	default:
		return "Unknown"
	}
}

type ErrorHandler interface {
	Handle(err error) bool
	GetAdvice(err *TransError) string
}

type DefaultErrorHandler struct{}

func NewDefaultErrorHandler() ErrorHandler {
	return &DefaultErrorHandler{}
}

func (h *DefaultErrorHandler) Handle(err error) bool {
	var transErr *TransError
	if !errors.As(err, &transErr) {
		log.Error("Unknown Error: %v", err)
		return false
	}

	advice := h.GetAdvice(transErr)
	log.Error("Error Detail: %v\n advice: %s", err, advice)

	return true
}

// GetAdvice returns error handling advice
func (h *DefaultErrorHandler) GetAdvice(err *TransError) string {
	switch err.Type {
	case ErrBatchFatal:
		return "Progress up to the failed batch is saved; run the same files again to resume"
	case ErrRateLimit:
		return "The backend is rate limiting requests; wait, lower the batch size or raise the cooldown"
	case ErrReconciliation:
		return "The model did not answer in [ID] blocks; try a smaller batch size or a stronger model"
	case ErrAnalysis, ErrRevision:
		return "Optional pass failed; the translation itself is unaffected"
	case ErrFileRead:
		return "Please check file permissions to ensure read access and verify the file is not corrupted"
	case ErrFileWrite:
		return "Please ensure the output directory exists and has write permissions"
	case ErrValidation:
		return "Please verify input files are .srt, .vtt or .ass and parameters are correct"
	case ErrConfig:
		return "Please check that configuration files or environment variables are set correctly"
	default:
		return "Please review detailed error information and check relevant configuration and files"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var transErr *TransError
	if errors.As(err, &transErr) {
		if transErr.Type == errorType {
			return true
		}
		return IsErrorType(transErr.Cause, errorType)
	}
	return false
}

func WrapError(err error, errorType ErrorType, message string) *TransError {
	return NewErrorWithCause(errorType, message, err)
}
