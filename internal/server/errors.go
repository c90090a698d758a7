package server

import (
	"errors"
	"net/http"

	"github.com/mkessler/leadpulse/internal/db"
)

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var notFound *db.ErrLeadNotFound
	var domainExists *db.ErrDomainExists

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &domainExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
