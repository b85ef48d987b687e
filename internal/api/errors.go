package api

import (
	"errors"
	"net/http"

	"github.com/datamesa/datamesa/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// QueryError maps to 422: the request was well-formed but the engine
// rejected the statement.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var queryErr *domain.QueryError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &queryErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
