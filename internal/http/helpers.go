package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/logger"
	"github.com/mrlokans/prayerbook/internal/query"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ListResponse wraps list results with their count.
type ListResponse struct {
	Data  any `json:"data"`
	Count int `json:"count"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data    any  `json:"data"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

const (
	codeInvalidArgument = "invalid_argument"
	codeNotFound        = "not_found"
	codeDuplicate       = "duplicate"
	codeInternal        = "internal"
	codeUnavailable     = "unavailable"
)

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: codeInvalidArgument})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: codeNotFound})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	logger.Error("internal error", "context", context, "err", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: codeInternal})
}

// respondError maps domain errors to status codes: unknown entities are 404,
// duplicates 409, validation failures 400 and everything else 500.
func respondError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, database.ErrCategoryNotFound):
		respondNotFound(c, "category")
	case errors.Is(err, database.ErrPrayerNotFound):
		respondNotFound(c, "prayer")
	case errors.Is(err, database.ErrUserCategoryNotFound):
		respondNotFound(c, "user category")
	case errors.Is(err, database.ErrDuplicateUserCategory):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: codeDuplicate})
	case errors.Is(err, query.ErrEmptySearchTerm),
		errors.Is(err, query.ErrInvalidPage),
		errors.Is(err, query.ErrEmptyTitle),
		errors.Is(err, query.ErrTitleTooLong),
		errors.Is(err, query.ErrInvalidColor):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: data})
}

// respondList sends a 200 OK response with a list and its length.
func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListResponse{Data: items, Count: len(items)})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates a positive integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return id, true
}

// parseIntQuery reads a non-negative integer query parameter, returning def
// when it is absent. Malformed values get a 400 response and ok=false.
func parseIntQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

// parseBoolQuery reads a boolean query parameter, treating malformed values as false.
func parseBoolQuery(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}
