// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cityofhelsinki/benefit-backend/internal/i18n"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

type Meta struct {
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// PaginatedResponse writes one page of a listing with its pagination meta,
// mirrored in the X-Total-Count family of headers.
func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    result.Data,
		Meta: &Meta{Pagination: &PaginationMeta{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		}},
	})
}

// ErrorResponse writes a failure envelope. The request id set by the request
// logger is echoed so a client report can be matched to the log line.
func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	requestID, _ := contextString(c, "request_id")
	c.JSON(statusCode, APIResponse{
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

// localized returns message, or the translation of key when message is empty.
func localized(c *gin.Context, message, key string, args ...interface{}) string {
	if message != "" {
		return message
	}
	return i18n.T(GetLangFromContext(c), key, args...)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST",
		localized(c, message, i18n.KeyValidationInvalid, "request"), details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED",
		localized(c, message, i18n.KeyAuthRequired), nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN",
		localized(c, message, i18n.KeyApplicationAccessDenied), nil)
}

// NotFoundResponse uses the "<resource>.not_found" message.
func NotFoundResponse(c *gin.Context, resource string) {
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND",
		localized(c, "", resource+".not_found"), nil)
}

func TooManyRequestsResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
		localized(c, "", i18n.KeyRateLimitExceeded), nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

// ValidationErrorResponse lists every failed field in details.
func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR",
		localized(c, "", i18n.KeyValidationInvalid, "input"), errors)
}

func GetLangFromContext(c *gin.Context) string {
	if lang, ok := contextString(c, "lang"); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	return contextString(c, "user_id")
}

func GetRoleFromContext(c *gin.Context) (string, bool) {
	return contextString(c, "role")
}

func contextString(c *gin.Context, key string) (string, bool) {
	value, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}
