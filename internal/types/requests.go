package types

// GenerateRequest represents the body of a recipe generation request
type GenerateRequest struct {
	Goal        string `json:"goal"`
	Ingredients string `json:"ingredients"`

	// RequestID correlates logs and audit entries; it is never read from the body.
	RequestID string `json:"-"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

// InternalErrorMessage is the only error text clients ever see
const InternalErrorMessage = "An internal server error occurred."
