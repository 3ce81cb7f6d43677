package response

import (
	"errors"
	"net/http"

	"shopapi/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

// Response represents a standard API response format
type Response struct {
	Status     string            `json:"status"`      // "success" or "error"
	StatusCode int               `json:"status_code"` // HTTP status code
	Data       interface{}       `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"` // field-keyed validation errors
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError maps a service error to (status code, envelope) using the
// apperr taxonomy. Internal details are never exposed to callers.
func FromError(err error) (int, Response) {
	ae := apperr.From(err)
	status := apperr.HTTPStatus(ae)

	if ae.Kind == apperr.KindInternal {
		return status, Error(status, "internal server error")
	}

	resp := Error(status, ae.Message)
	resp.Errors = ae.Fields
	return status, resp
}

// FromBindingError maps a gin ShouldBindJSON failure to a 422 with a
// field-keyed error map when the underlying cause is a validator error,
// and to a plain 400 otherwise (malformed JSON and the like).
func FromBindingError(err error) (int, Response) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = bindingMessage(fe)
		}
		resp := Error(http.StatusUnprocessableEntity, "Validation failed")
		resp.Errors = fields
		return http.StatusUnprocessableEntity, resp
	}
	return http.StatusBadRequest, Error(http.StatusBadRequest, "Invalid request payload: "+err.Error())
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Value is below the minimum of " + fe.Param()
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	default:
		return "Invalid value"
	}
}
