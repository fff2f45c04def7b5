package validation

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names of the request bodies accepted by the API.
const (
	SearchRequest      = "search-request"
	ConnectRequest     = "connect-request"
	RespondRequest     = "respond-request"
	InteractionRequest = "interaction-request"
	AuthRequest        = "auth-request"
)

//go:embed schemas/*.json
var embeddedSchemas embed.FS

var schemaFiles = map[string]string{
	SearchRequest:      "search-request.json",
	ConnectRequest:     "connect-request.json",
	RespondRequest:     "respond-request.json",
	InteractionRequest: "interaction-request.json",
	AuthRequest:        "auth-request.json",
}

// SchemaValidator handles JSON schema validation for API requests
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaValidator creates an empty schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// NewDefaultValidator returns a validator with the embedded request schemas loaded.
func NewDefaultValidator() (*SchemaValidator, error) {
	sv := NewSchemaValidator()
	if err := sv.LoadSchemaFromFS(embeddedSchemas, "schemas"); err != nil {
		return nil, err
	}
	return sv, nil
}

// LoadSchemaFromFS loads the request schemas from fsys
func (sv *SchemaValidator) LoadSchemaFromFS(fsys fs.FS, schemaDir string) error {
	for name, filename := range schemaFiles {
		schemaPath := path.Join(schemaDir, filename)

		schemaBytes, err := fs.ReadFile(fsys, schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file %s: %w", schemaPath, err)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
		if err != nil {
			return fmt.Errorf("failed to load schema %s: %w", name, err)
		}

		sv.schemas[name] = schema
	}

	return nil
}

// ValidateJSONString validates a JSON string against a schema
func (sv *SchemaValidator) ValidateJSONString(schemaName, jsonString string) *ValidationResult {
	return sv.validate(schemaName, gojsonschema.NewStringLoader(jsonString))
}

// ValidateStruct validates a Go value against a schema
func (sv *SchemaValidator) ValidateStruct(schemaName string, data interface{}) *ValidationResult {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return invalid("data", "JSON_MARSHAL_ERROR", fmt.Sprintf("Failed to marshal data to JSON: %v", err))
	}
	return sv.validate(schemaName, gojsonschema.NewBytesLoader(jsonBytes))
}

func (sv *SchemaValidator) validate(schemaName string, document gojsonschema.JSONLoader) *ValidationResult {
	schema, exists := sv.schemas[schemaName]
	if !exists {
		return invalid("schema", "SCHEMA_NOT_FOUND", fmt.Sprintf("Schema '%s' not found", schemaName))
	}

	result, err := schema.Validate(document)
	if err != nil {
		return invalid("validation", "VALIDATION_ERROR", fmt.Sprintf("Validation error: %v", err))
	}

	validationResult := &ValidationResult{
		Valid:  result.Valid(),
		Errors: make([]ValidationError, 0, len(result.Errors())),
	}
	for _, err := range result.Errors() {
		validationResult.Errors = append(validationResult.Errors, ValidationError{
			Field:   err.Field(),
			Message: err.Description(),
			Code:    "VALIDATION_ERROR",
			Value:   err.Value(),
			Context: err.Context().String(),
		})
	}

	return validationResult
}

func invalid(field, code, message string) *ValidationResult {
	return &ValidationResult{
		Valid:  false,
		Errors: []ValidationError{{Field: field, Message: message, Code: code}},
	}
}

// ValidationResult represents the result of a validation operation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Value   interface{} `json:"value,omitempty"`
	Context string      `json:"context,omitempty"`
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// ToAPIError converts validation errors to the API error envelope
func (vr *ValidationResult) ToAPIError() map[string]interface{} {
	if vr.Valid {
		return nil
	}

	errorDetails := map[string]interface{}{
		"validationErrors": vr.Errors,
	}

	fieldErrors := make(map[string][]string)
	for _, err := range vr.Errors {
		if err.Field != "" {
			fieldErrors[err.Field] = append(fieldErrors[err.Field], err.Message)
		}
	}
	if len(fieldErrors) > 0 {
		errorDetails["fieldErrors"] = fieldErrors
	}

	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "VALIDATION_ERROR",
			"message": "Request validation failed",
			"details": errorDetails,
		},
	}
}

// GetAvailableSchemas returns the loaded schema names in sorted order
func (sv *SchemaValidator) GetAvailableSchemas() []string {
	schemas := make([]string, 0, len(sv.schemas))
	for name := range sv.schemas {
		schemas = append(schemas, name)
	}
	sort.Strings(schemas)
	return schemas
}

// SchemaExists checks if a schema with the given name is loaded
func (sv *SchemaValidator) SchemaExists(name string) bool {
	_, exists := sv.schemas[name]
	return exists
}
