package http

import (
	"github.com/gin-gonic/gin"
)

// validator is implemented by request bodies with rules beyond their JSON shape.
type validator interface {
	Validate() error
}

// bindJSON decodes the request body into a T and runs its Validate method
// when it has one.
func bindJSON[T any](c *gin.Context) (*T, error) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	if v, ok := any(&req).(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &req, nil
}
