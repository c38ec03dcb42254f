package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/response"
)

var (
	errMissingUserID = errors.New("missing userId parameter")
	errMissingID     = errors.New("missing id parameter")
)

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case 400:
		resp = response.BadRequest(msg)
	case 401:
		resp = response.Unauthorized(msg)
	case 403:
		resp = response.Forbidden(msg)
	case 404:
		resp = response.NotFound(msg)
	case 409:
		resp = response.Conflict(msg)
	case 500:
		resp = response.InternalError(msg)
	default:
		resp = response.NewAppError(status, msg)
	}
	c.JSON(status, resp)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(200, response.Success(data, meta))
}
