package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/abhisek/lernbuddy/internal/testsession"
)

type errorBody struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func storeFailure(op string, err error) error {
	return &testsession.ErrStoreUnavailable{Op: op, Err: err}
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		notFound *testsession.ErrSessionNotFound
		closed   *testsession.ErrSessionClosed
		active   *testsession.ErrSessionActive
		index    *testsession.ErrInvalidIndex
		store    *testsession.ErrStoreUnavailable
		syntax   *json.SyntaxError
		typeErr  *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &closed), errors.As(err, &active):
		return http.StatusConflict
	case errors.As(err, &index), errors.Is(err, testsession.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &store):
		return http.StatusServiceUnavailable
	case errors.As(err, &syntax), errors.As(err, &typeErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		body.Error = "request validation failed"
		for _, fe := range ve {
			body.Fields = append(body.Fields, fieldError{Field: fe.Field(), Rule: ruleOf(fe)})
		}
	}
	if status >= http.StatusInternalServerError {
		c.Error(err)
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func ruleOf(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
}
