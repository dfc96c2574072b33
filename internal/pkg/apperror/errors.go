package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUpstream
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Stable error codes surfaced to API clients.
const (
	CodeTermsNotAccepted       = "TERMS_NOT_ACCEPTED"
	CodeQuestionnaireNotFound  = "QUESTIONNAIRE_NOT_FOUND"
	CodeSessionNotFound        = "SESSION_NOT_FOUND"
	CodeDuplicateSession       = "DUPLICATE_SESSION"
	CodeDuplicateQuestionnaire = "DUPLICATE_QUESTIONNAIRE"
	CodeModelUnavailable       = "MODEL_UNAVAILABLE"
	CodeNoQuestionsAvailable   = "NO_QUESTIONS_AVAILABLE"
	CodeSessionComplete        = "SESSION_COMPLETE"
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeEmbeddingFailure       = "EMBEDDING_FAILURE"
	CodeRenderFailure          = "RENDER_FAILURE"
	CodePersistenceFailure     = "PERSISTENCE_FAILURE"
)

// Error is the application error carried from services up to the HTTP layer.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so callers can compare against the
// package-level sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Upstream(code, message string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: message, Err: err}
}

func Internal(code, message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: message, Err: err}
}

// Sentinels for errors.Is comparisons.
var (
	ErrTermsNotAccepted       = &Error{Code: CodeTermsNotAccepted}
	ErrQuestionnaireNotFound  = &Error{Code: CodeQuestionnaireNotFound}
	ErrSessionNotFound        = &Error{Code: CodeSessionNotFound}
	ErrDuplicateSession       = &Error{Code: CodeDuplicateSession}
	ErrDuplicateQuestionnaire = &Error{Code: CodeDuplicateQuestionnaire}
	ErrModelUnavailable       = &Error{Code: CodeModelUnavailable}
	ErrNoQuestionsAvailable   = &Error{Code: CodeNoQuestionsAvailable}
	ErrSessionComplete        = &Error{Code: CodeSessionComplete}
	ErrRenderFailure          = &Error{Code: CodeRenderFailure}
	ErrEmbeddingFailure       = &Error{Code: CodeEmbeddingFailure}
)

// KindOf reports the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf reports the code of err, empty for foreign errors.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
