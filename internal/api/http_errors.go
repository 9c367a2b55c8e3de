package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatInput:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatConflict:
		return http.StatusConflict, true
	case core.ErrCatAuth:
		return http.StatusUnauthorized, true
	case core.ErrCatRateLimit:
		return http.StatusTooManyRequests, true
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout, true
	case core.ErrCatExternal:
		return http.StatusBadGateway, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondDomainError maps err onto a status code. Errors that are not domain
// errors become 500 responses with a generic message.
func respondDomainError(w http.ResponseWriter, err error) {
	if status, ok := httpStatusForDomainError(err); ok {
		var domErr *core.DomainError
		errors.As(err, &domErr)
		respondJSON(w, status, map[string]string{
			"error": domErr.Message,
			"code":  domErr.Code,
		})
		return
	}
	respondError(w, http.StatusInternalServerError, "internal error")
}
