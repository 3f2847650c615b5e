package dto

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the common error body for all endpoints.
type ErrorResponse struct {
	Error           string       `json:"error"`
	RequiresUpgrade bool         `json:"requiresUpgrade,omitempty"`
	Details         []FieldError `json:"details,omitempty"`
}
