package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temcen/fitpair/internal/validation"
)

const maxBodyBytes = 64 << 10

// ValidationMiddleware checks JSON request bodies against the embedded schemas
type ValidationMiddleware struct {
	validator *validation.SchemaValidator
}

func NewValidationMiddleware(validator *validation.SchemaValidator) *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validator,
	}
}

// ValidateBody rejects bodies that are missing, malformed or that do not match
// schemaName. The body is restored for the handler.
func (vm *ValidationMiddleware) ValidateBody(schemaName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete {
			c.Next()
			return
		}

		if contentType := c.GetHeader("Content-Type"); !strings.Contains(contentType, "application/json") {
			vm.sendValidationError(c, "INVALID_HEADER", "Content-Type must be application/json", map[string]interface{}{
				"contentType": contentType,
			})
			return
		}

		bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			vm.sendValidationError(c, "BODY_READ_ERROR", "Failed to read request body", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		if len(bodyBytes) > maxBodyBytes {
			vm.sendValidationError(c, "BODY_TOO_LARGE", "Request body is too large", nil)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		if len(bodyBytes) == 0 {
			vm.sendValidationError(c, "EMPTY_BODY", "Request body is required", nil)
			return
		}

		if !json.Valid(bodyBytes) {
			vm.sendValidationError(c, "INVALID_JSON", "Request body must be valid JSON", nil)
			return
		}

		result := vm.validator.ValidateJSONString(schemaName, string(bodyBytes))
		if !result.Valid {
			apiError := result.ToAPIError()
			if errorObj, ok := apiError["error"].(map[string]interface{}); ok {
				vm.decorate(c, errorObj)
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, apiError)
			return
		}

		c.Next()
	}
}

func (vm *ValidationMiddleware) sendValidationError(c *gin.Context, code, message string, details map[string]interface{}) {
	errorObj := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if details != nil {
		errorObj["details"] = details
	}
	vm.decorate(c, errorObj)

	c.AbortWithStatusJSON(http.StatusBadRequest, map[string]interface{}{"error": errorObj})
}

func (vm *ValidationMiddleware) decorate(c *gin.Context, errorObj map[string]interface{}) {
	errorObj["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	errorObj["path"] = c.Request.URL.Path
	errorObj["method"] = c.Request.Method
	if requestID := c.GetString("request_id"); requestID != "" {
		errorObj["requestId"] = requestID
	}
}
