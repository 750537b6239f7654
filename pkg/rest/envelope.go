package rest

import (
	"net/http"

	"github.com/crudr/crudr/pkg/httputil"
)

// Error messages exposed to clients. The fixed vocabulary is part of the API
// contract: internal failure detail never reaches the response.
const (
	msgBadQuery         = "Bad query arguments"
	msgBadBody          = "Request body is not a valid json object"
	msgValidationFailed = "Validation failed"
	msgNotFound         = "Item not found"
	msgMethodNotAllowed = "Method not allowed"
	msgInternal         = "Internal server error"
)

// ErrorDetail is one entry of the envelope's errors list.
type ErrorDetail struct {
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

// Pagination reports the window applied to a list result. Total is present
// only when a total count was computed.
type Pagination struct {
	Total  *int64 `json:"total,omitempty"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Success    bool          `json:"success"`
	Errors     []ErrorDetail `json:"errors"`
	Result     any           `json:"result"`
	Pagination *Pagination   `json:"pagination,omitempty"`
}

func writeResult(w http.ResponseWriter, statusCode int, result any, pagination *Pagination) {
	httputil.JSON(w, statusCode, Envelope{
		Success:    true,
		Errors:     []ErrorDetail{},
		Result:     result,
		Pagination: pagination,
	})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	httputil.JSON(w, statusCode, Envelope{
		Success: false,
		Errors:  []ErrorDetail{{Message: message}},
		Result:  nil,
	})
}
