package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// statusCodes maps categories onto HTTP status codes. Anything else is a 500.
var statusCodes = map[ErrorCategory]int{
	CategoryValidation:    http.StatusBadRequest,
	CategoryConfig:        http.StatusBadRequest,
	CategoryNotFound:      http.StatusNotFound,
	CategoryAlreadyExists: http.StatusConflict,
	CategoryParse:         http.StatusUnprocessableEntity,
	CategoryExecution:     http.StatusBadGateway,
	CategoryMessaging:     http.StatusBadGateway,
	CategoryRuntime:       http.StatusServiceUnavailable,
}

// HTTPErrorAdapter writes classified errors as JSON responses.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates an HTTP adapter. A nil logger uses slog.Default.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON body of every error response.
type HTTPErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusCodeFor returns the HTTP status for err.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if c, ok := AsClassified(err); ok {
		if status, ok := statusCodes[c.category]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse writes err with its status and logs it.
// Caller faults log at info, daemon failures at warn, everything else at error.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	body, jerr := json.Marshal(a.FormatErrorResponse(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if jerr != nil {
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
	} else {
		_, _ = w.Write(body)
	}

	level := slog.LevelError
	if c, ok := AsClassified(err); ok {
		level = logLevel(c)
	}
	a.logger.LogAttrs(r.Context(), level, "Request failed",
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
		slog.Int("status", status))
}

// FormatErrorResponse converts err into the JSON body. Internal errors hide their cause.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	c, ok := AsClassified(err)
	if !ok {
		return HTTPErrorResponse{Error: "internal error", Code: string(CategoryInternal)}
	}
	resp := HTTPErrorResponse{Error: c.message, Code: string(c.category)}
	if len(c.context) > 0 {
		resp.Details = c.Context()
	}
	return resp
}
