// Package apperr classifies pipeline failures so callers can pick a remediation
// message without string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Kind names one failure class of the analysis pipeline.
type Kind string

const (
	UnsupportedFileType      Kind = "unsupported_file_type"
	InvalidInput             Kind = "invalid_input"
	ReadFailed               Kind = "read_failed"
	ExtractionFailed         Kind = "extraction_failed"
	InsufficientText         Kind = "insufficient_text"
	MissingCredentials       Kind = "missing_credentials"
	TransportError           Kind = "transport_error"
	MalformedBackendResponse Kind = "malformed_backend_response"
	NoJSONFound              Kind = "no_json_found"
	MalformedJSON            Kind = "malformed_json"
	SchemaViolation          Kind = "schema_violation"
	SaveFailed               Kind = "save_failed"
	Busy                     Kind = "busy"
	Internal                 Kind = "internal"
)

// Error is a classified failure. Status is only set for TransportError and holds
// the upstream HTTP status (0 when the request never got a response).
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " status=%d", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnsupportedFileType      = &Error{Kind: UnsupportedFileType}
	ErrInvalidInput             = &Error{Kind: InvalidInput}
	ErrReadFailed               = &Error{Kind: ReadFailed}
	ErrExtractionFailed         = &Error{Kind: ExtractionFailed}
	ErrInsufficientText         = &Error{Kind: InsufficientText}
	ErrMissingCredentials       = &Error{Kind: MissingCredentials}
	ErrTransport                = &Error{Kind: TransportError}
	ErrMalformedBackendResponse = &Error{Kind: MalformedBackendResponse}
	ErrNoJSONFound              = &Error{Kind: NoJSONFound}
	ErrMalformedJSON            = &Error{Kind: MalformedJSON}
	ErrSchemaViolation          = &Error{Kind: SchemaViolation}
	ErrSaveFailed               = &Error{Kind: SaveFailed}
	ErrBusy                     = &Error{Kind: Busy}
)

// New returns a classified error with a human-readable detail.
func New(kind Kind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// Wrap classifies err. A nil err still yields a classified error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Transport builds a TransportError carrying the upstream status and message.
func Transport(op string, status int, message string, err error) *Error {
	return &Error{Kind: TransportError, Op: op, Status: status, Detail: Snippet(message), Err: err}
}

// KindOf reports the kind of the first classified error in err's chain, or Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// StatusOf returns the upstream HTTP status carried by a TransportError, if any.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Snippet flattens s onto one line and caps it so it is safe to log or return.
func Snippet(s string) string {
	msg := strings.ReplaceAll(s, "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}

// HTTPStatus maps a kind to the status the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case UnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case InvalidInput:
		return http.StatusBadRequest
	case ReadFailed, ExtractionFailed, InsufficientText:
		return http.StatusUnprocessableEntity
	case MissingCredentials:
		return http.StatusServiceUnavailable
	case TransportError, MalformedBackendResponse, NoJSONFound, MalformedJSON, SchemaViolation:
		return http.StatusBadGateway
	case Busy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message is the user-facing remediation text for a kind.
func Message(kind Kind) string {
	switch kind {
	case UnsupportedFileType:
		return "Please upload a PDF or Word document, or paste your resume as text."
	case InvalidInput:
		return "Please provide your resume content and a job description."
	case ReadFailed:
		return "The file could not be read. Please try uploading it again."
	case ExtractionFailed, InsufficientText:
		return "Could not extract meaningful text from the file. Please try the paste-text option instead."
	case MissingCredentials:
		return "The analysis service is not configured. Please contact the operator."
	case TransportError:
		return "The analysis service is unavailable right now. Please try again later."
	case MalformedBackendResponse:
		return "The analysis service returned an unexpected response. Please try again."
	case NoJSONFound, MalformedJSON, SchemaViolation:
		return "Received an invalid response from the analysis service. Please try again."
	case SaveFailed:
		return "The document could not be saved. Please retry the download."
	case Busy:
		return "An analysis is already running. Please wait for it to finish."
	default:
		return "Unexpected server error."
	}
}
