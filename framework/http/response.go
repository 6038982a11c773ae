package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-boot/framework/container"
	"github.com/km-arc/go-boot/framework/validation"
)

// Response wraps http.ResponseWriter with JSON helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Error sends a JSON error response: {"message": message}
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	res.Error(http.StatusNotFound, first(message, "Not found."))
}

// ValidationError sends 422 with the error bag.
func (res *Response) ValidationError(errs *validation.Errors) {
	res.JSON(http.StatusUnprocessableEntity, errs)
}

// Fail maps err onto a status. Container errors carry their code in the
// body: {"message": ..., "code": "AUTOWIRED_10002"}
func (res *Response) Fail(err error) {
	var verrs *validation.Errors
	if errors.As(err, &verrs) {
		res.ValidationError(verrs)
		return
	}
	body := envelope{"message": err.Error()}
	var coded container.Coded
	if errors.As(err, &coded) {
		body["code"] = coded.Code()
	}
	res.JSON(StatusFor(err), body)
}

// StatusFor picks the HTTP status for a container error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, container.ErrDefinitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, container.ErrInvalidConfig),
		errors.Is(err, container.ErrUseWrongMethod):
		return http.StatusBadRequest
	case errors.Is(err, container.ErrDuplicateClassName):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
