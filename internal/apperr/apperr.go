// Package apperr is the error taxonomy shared by services and HTTP handlers.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

type Kind string

const (
	Unauthorized    Kind = "unauthorized"
	Forbidden       Kind = "forbidden"
	NotFound        Kind = "not_found"
	InvalidArgument Kind = "invalid_argument"
	InvalidState    Kind = "invalid_state"
	Conflict        Kind = "conflict"
	Internal        Kind = "internal"
)

type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, detail string) *Error { return &Error{Kind: kind, Detail: detail} }

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause; the cause is logged but never sent to the client.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf returns Internal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

func Status(kind Kind) int {
	switch kind {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvalidArgument:
		return http.StatusBadRequest
	case InvalidState, Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Write renders err as {"detail": "..."}.
func Write(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Wrap(Internal, "Internal server error", err)
	}
	detail := e.Detail
	if e.Kind == Internal {
		log.Printf("internal error: %v", err)
		detail = "Internal server error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(e.Kind))
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
