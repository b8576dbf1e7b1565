// Package apperr define la taxonomía de errores compartida por los módulos clínicos.
//
// Cada módulo sigue declarando sus sentinels (ErrInvalidInput, ErrNotFound, ...),
// pero los construye sobre estos kinds para que handlers y motor de workflow
// puedan clasificarlos con errors.Is sin conocer el módulo de origen.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrUnavailable        = errors.New("store unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrIdentityUnresolved = errors.New("identity unresolved")
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
)

// Error agrega contexto (operación + sujeto) a un kind de la taxonomía.
type Error struct {
	Kind    error
	Op      string
	Subject string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("error")
	}
	if e.Subject != "" {
		b.WriteString(" [")
		b.WriteString(e.Subject)
		b.WriteString("]")
	}
	if e.Err != nil && e.Err != e.Kind {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap expone kind y causa, así errors.Is funciona contra ambos.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil && e.Err != e.Kind {
		out = append(out, e.Err)
	}
	return out
}

func E(kind error, op, subject string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: cause}
}

func Validation(op, msg string) *Error {
	return &Error{Kind: ErrValidation, Op: op, Err: errors.New(msg)}
}

func Forbidden(op, subject string) *Error {
	return &Error{Kind: ErrForbidden, Op: op, Subject: subject}
}

func Unavailable(op string, cause error) *Error {
	return &Error{Kind: ErrUnavailable, Op: op, Err: cause}
}

func NotFound(op, subject string) *Error {
	return &Error{Kind: ErrNotFound, Op: op, Subject: subject}
}

var kinds = []error{
	ErrForbidden,
	ErrIdentityUnresolved,
	ErrValidation,
	ErrInsufficientStock,
	ErrNotFound,
	ErrConflict,
	ErrUnavailable,
}

// Kind devuelve el kind de err (o nil). Manda el Kind del *Error más externo;
// si no es uno conocido, el primero que matchee en la cadena.
func Kind(err error) error {
	var e *Error
	if errors.As(err, &e) {
		for _, k := range kinds {
			if e.Kind == k {
				return k
			}
		}
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// HTTPStatus traduce un error a status HTTP. Desconocidos => 500.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case ErrForbidden:
		return http.StatusForbidden
	case ErrIdentityUnresolved:
		return http.StatusUnprocessableEntity
	case ErrValidation:
		return http.StatusBadRequest
	case ErrInsufficientStock, ErrConflict:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code es el identificador estable que viaja en el body JSON de error.
func Code(err error) string {
	switch Kind(err) {
	case ErrForbidden:
		return "FORBIDDEN"
	case ErrIdentityUnresolved:
		return "IDENTITY_UNRESOLVED"
	case ErrValidation:
		return "VALIDATION_ERROR"
	case ErrInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case ErrConflict:
		return "CONFLICT"
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrUnavailable:
		return "UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// Retryable indica si la UI debería ofrecer "reintentar".
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Wrapf es un atajo para agregar contexto manteniendo la cadena.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Body es el payload JSON de error que devuelven los handlers.
func Body(err error) map[string]any {
	return map[string]any{
		"error":     Code(err),
		"message":   err.Error(),
		"retryable": Retryable(err),
	}
}
