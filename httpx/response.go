// Package httpx provides the unified JSON response format for the HTTP
// surfaces.
package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquafarm-pro/tenantcore/errcode"
)

// Response unified response envelope
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// OkJson successful response
func OkJson(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

// HandleError maps an error onto the response envelope. LayeredError
// carries its own HTTP status and code; anything else is an opaque 500.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var layeredErr *errcode.LayeredError
	if errors.As(err, &layeredErr) {
		c.JSON(layeredErr.HTTPStatus(), Response{
			Code: layeredErr.Code(),
			Msg:  layeredErr.Message(),
			Data: layeredErr.Data(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, Response{
		Code: http.StatusInternalServerError,
		Msg:  "internal error",
	})
}

// AbortError like HandleError but stops the handler chain
func AbortError(c *gin.Context, err error) {
	HandleError(c, err)
	c.Abort()
}
