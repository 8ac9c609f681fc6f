package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// CodeError is an error that carries the API error code sent to clients.
type CodeError struct {
	code uint32
	msg  string
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{code: uint32(code), msg: msg}
}

func (e *CodeError) Error() string {
	return e.msg
}

func (e *CodeError) Code() uint32 {
	return e.code
}

// Success writes data inside the standard envelope with code 0.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Fail writes an error envelope. Transport status stays 200 and the failure
// is carried by code.
func Fail(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, NewCodeError(code, message))
}

// FailErr writes err when it is a CodeError and reports whether it did.
func FailErr(c *gin.Context, err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	proxyutil.FailJson(c, 200, ce)
	return true
}
