package response

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// APIResponse is the standard success envelope of the admin API.
type APIResponse struct {
	Data      any       `json:"data"`
	Status    int       `json:"status"`
	Message   string    `json:"message,omitempty"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError is the standard error envelope of the admin API.
type APIError struct {
	Message   string    `json:"message"`
	Error     string    `json:"error"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func pathFromContext(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().URL.Path
}

// OK sends a 200 response with data.
func OK(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusOK, APIResponse{
		Data:      data,
		Status:    http.StatusOK,
		Message:   message,
		Path:      pathFromContext(c),
		Timestamp: time.Now().UTC(),
	})
}

// Error sends a JSON error response using APIError.
func Error(c echo.Context, status int, message, errDetail string) error {
	return c.JSON(status, APIError{
		Message:   message,
		Error:     errDetail,
		Path:      pathFromContext(c),
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
}

// BadRequest sends 400 with message and error detail.
func BadRequest(c echo.Context, message, errDetail string) error {
	return Error(c, http.StatusBadRequest, message, errDetail)
}

// NotFound sends 404 with message and error detail.
func NotFound(c echo.Context, message, errDetail string) error {
	return Error(c, http.StatusNotFound, message, errDetail)
}

// ServiceUnavailable sends 503, used by /health while the pipeline is not running.
func ServiceUnavailable(c echo.Context, message, errDetail string) error {
	return Error(c, http.StatusServiceUnavailable, message, errDetail)
}
