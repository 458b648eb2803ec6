package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github-portfolio/internal/common"
)

// ErrorResponse 所有失败响应的统一结构
type ErrorResponse struct {
	Error          string `json:"error"`
	Code           string `json:"code,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
}

// statusFor 把 AppError 映射到 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case common.IsTimeout(err):
		return http.StatusGatewayTimeout
	case common.IsValidation(err):
		return http.StatusBadRequest
	case common.IsNotFound(err):
		return http.StatusNotFound
	case common.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), errorBody(err))
}

func errorBody(err error) ErrorResponse {
	return ErrorResponse{
		Error:          err.Error(),
		Code:           common.CodeOf(err),
		UpstreamStatus: common.UpstreamStatus(err),
	}
}
