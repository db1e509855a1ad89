package model

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail points at the field or stage that caused the failure
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
