package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/i18n"
	"github.com/guttosm/bundle-service/internal/middleware"
)

// ResponseBuilder writes the JSON envelopes of the bundle API for one request.
type ResponseBuilder struct {
	c *gin.Context
}

// NewResponseBuilder creates a builder for c.
func NewResponseBuilder(c *gin.Context) *ResponseBuilder {
	return &ResponseBuilder{c: c}
}

func (b *ResponseBuilder) translate(key string) string {
	return i18n.GetTranslator().Translate(key, i18n.GetLocale(b.c))
}

func (b *ResponseBuilder) success(status int, message string, data interface{}) {
	b.c.JSON(status, dto.SuccessResponse{
		Data:      data,
		Message:   message,
		RequestID: middleware.GetRequestID(b.c),
		Timestamp: time.Now().UTC(),
	})
}

// OK answers 200 with data.
func (b *ResponseBuilder) OK(data interface{}) {
	b.success(http.StatusOK, "", data)
}

// Created answers 201 with data.
func (b *ResponseBuilder) Created(data interface{}) {
	b.success(http.StatusCreated, "", data)
}

// OKWithMessage answers 200 with data and a confirmation in the caller's locale.
func (b *ResponseBuilder) OKWithMessage(messageKey string, data interface{}) {
	b.success(http.StatusOK, b.translate(messageKey), data)
}

// Fail aborts with an error envelope. A non-nil err is attached to the gin
// context for the error handler to log.
func (b *ResponseBuilder) Fail(status int, messageKey string, err error) {
	b.fail(status, messageKey, nil, err)
}

// BadRequest rejects a body that could not be decoded or validated.
func (b *ResponseBuilder) BadRequest(err error) {
	if err != nil {
		_ = b.c.Error(err).SetType(gin.ErrorTypeBind)
	}
	b.fail(http.StatusBadRequest, i18n.ErrKeyInvalidRequestBody, nil, nil)
}

func (b *ResponseBuilder) fail(status int, messageKey string, violations []model.Violation, err error) {
	if err != nil {
		_ = b.c.Error(err)
	}
	resp := dto.NewError(dto.ErrCodeFromStatus(status), b.translate(messageKey)).
		WithRequestID(middleware.GetRequestID(b.c))
	if len(violations) > 0 {
		resp.Violations = violationDetails(b.c, violations)
	}
	b.c.AbortWithStatusJSON(status, resp)
}

// ServiceError renders an error from the bundle, session or cart services.
// Violations carried by a submission error are listed, and only server-side
// failures are handed to the error handler.
func (b *ResponseBuilder) ServiceError(err error) {
	mapping := mapServiceError(err)

	logged := err
	if mapping.status < http.StatusInternalServerError {
		logged = nil
	}
	b.fail(mapping.status, mapping.key, submissionViolations(err), logged)
}

// violationDetails pairs each violation with its message in the caller's locale.
func violationDetails(c *gin.Context, violations []model.Violation) []dto.ViolationDetail {
	locale := i18n.GetLocale(c)
	translator := i18n.GetTranslator()

	details := make([]dto.ViolationDetail, len(violations))
	for i, v := range violations {
		details[i] = dto.ViolationDetail{Code: v, Message: translator.TranslateViolation(string(v), locale)}
	}
	return details
}
