package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/guttosm/bundle-service/internal/circuitbreaker"
	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/i18n"
	"github.com/guttosm/bundle-service/internal/service"
)

// errorMapping is the HTTP rendering of a service error.
type errorMapping struct {
	status int
	key    string
}

// mapServiceError classifies an error returned by the catalog, session or
// cart services. Unknown errors are internal.
func mapServiceError(err error) errorMapping {
	var subErr *service.SubmissionError
	if errors.As(err, &subErr) {
		switch subErr.Kind {
		case service.KindValidation:
			return errorMapping{http.StatusUnprocessableEntity, i18n.ErrKeySelectionInvalid}
		case service.KindNothingToSubmit:
			return errorMapping{http.StatusUnprocessableEntity, i18n.ErrKeyNothingToSubmit}
		case service.KindInFlight:
			return errorMapping{http.StatusConflict, i18n.ErrKeySubmissionInFlight}
		default:
			return errorMapping{http.StatusBadGateway, i18n.ErrKeyCartUnavailable}
		}
	}

	switch {
	case errors.Is(err, service.ErrBundleNotFound):
		return errorMapping{http.StatusNotFound, i18n.ErrKeyBundleNotFound}
	case errors.Is(err, service.ErrSessionNotFound):
		return errorMapping{http.StatusNotFound, i18n.ErrKeySessionNotFound}
	case errors.Is(err, model.ErrUnknownProduct),
		errors.Is(err, model.ErrUnknownVariant),
		errors.Is(err, model.ErrProductNotSelected),
		errors.Is(err, model.ErrUnknownAddOn),
		errors.Is(err, model.ErrUnknownAction):
		return errorMapping{http.StatusUnprocessableEntity, i18n.ErrKeyInvalidAction}
	case errors.Is(err, circuitbreaker.ErrCircuitOpen),
		errors.Is(err, service.ErrRepositoryNotConfigured):
		return errorMapping{http.StatusServiceUnavailable, i18n.ErrKeyCatalogUnavailable}
	case errors.Is(err, context.DeadlineExceeded):
		return errorMapping{http.StatusGatewayTimeout, i18n.ErrKeyTimeout}
	default:
		return errorMapping{http.StatusInternalServerError, i18n.ErrKeyInternalError}
	}
}

// submissionViolations returns the violations carried by a submission error.
func submissionViolations(err error) []model.Violation {
	var subErr *service.SubmissionError
	if errors.As(err, &subErr) {
		return subErr.Violations
	}
	return nil
}
