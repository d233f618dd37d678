package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorEnvelope is the body of every non-2xx response:
//
//	{"error": {"message": "...", "code": "name_taken", "details": {...}}}
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Problem is an error that already knows how it should be rendered.
type Problem struct {
	Status  int
	Code    string
	Err     error
	Details any
}

func (p *Problem) Error() string {
	switch {
	case p == nil:
		return ""
	case p.Err != nil:
		return p.Err.Error()
	case p.Code != "":
		return p.Code
	default:
		return http.StatusText(p.Status)
	}
}

func (p *Problem) Unwrap() error { return p.Err }

// RespondError writes a client error with a fixed code, e.g. a malformed path id.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
