package httperr

import (
	"log/slog"
	"net/http"

	"practice-hub/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

// Response is the body of every error reply: {"error": "..."}.
type Response struct {
	Status int    `json:"-"`
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

type mapping struct {
	kind   error
	status int
	msg    string
}

// first match wins; specific kinds come before the generic ones
var mappings = []mapping{
	{errs.ErrExpiredToken, http.StatusGone, "This link has expired"},
	{errs.ErrTokenAlreadyUsed, http.StatusConflict, "This link has already been used"},
	{errs.ErrInvalidToken, http.StatusBadRequest, "Invalid link"},
	{errs.ErrAlreadyDecided, http.StatusConflict, "This proposal has already been decided"},
	{errs.ErrBookingConflict, http.StatusConflict, "The session changed, reload and try again"},
	{errs.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{errs.ErrInvalidInput, http.StatusBadRequest, "Invalid request"},
	{errs.ErrNotFound, http.StatusNotFound, "Not found"},
	{errs.ErrProviderError, http.StatusBadGateway, "Could not send email, try again later"},
}

// StatusFor maps an error from the usecase layer to a status and a public message.
func StatusFor(err error) (int, string) {
	m := lookup(err)
	return m.status, m.msg
}

func lookup(err error) mapping {
	for _, m := range mappings {
		if errs.Is(err, m.kind) {
			return m
		}
	}
	return mapping{status: http.StatusInternalServerError, msg: "Internal server error"}
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		err = errs.New(msg)
	}

	resp := Response{Status: status, Error: msg, Detail: detail}

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// Abort maps err through StatusFor. Validation and permission messages are
// passed through; link errors keep their fixed wording and anything unmapped
// is logged and hidden.
func Abort(c *gin.Context, err error) {
	m := lookup(err)
	msg := m.msg
	switch m.kind {
	case errs.ErrInvalidInput, errs.ErrForbidden:
		msg = errs.Cause(err).Error()
	case nil:
		slog.Error("request failed", "error", err, "path", c.Request.URL.Path)
	}
	AbortWithError(c, m.status, err, msg, nil)
}
