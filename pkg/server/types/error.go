package types

// ErrorResponse is the envelope every management API error uses. Clients
// can rely on finding a type and a message under "error" regardless of
// which endpoint failed.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Type categorizes the error.
	// Possible values: "invalid_request_error", "authentication_error",
	// "not_found_error", "api_error", "timeout_error".
	Type string `json:"type"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error type constants.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeAuthentication indicates an authentication failure (401).
	ErrorTypeAuthentication = "authentication_error"

	// ErrorTypeNotFound indicates a resource was not found (404).
	ErrorTypeNotFound = "not_found_error"

	// ErrorTypeAPI indicates a server-side failure (500, and 502 when the
	// upstream answer could not be relayed with its own type).
	ErrorTypeAPI = "api_error"

	// ErrorTypeTimeout indicates an upstream fetch timed out (504).
	ErrorTypeTimeout = "timeout_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(errorType, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Type:    errorType,
			Message: message,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message string) *ErrorResponse {
	return NewErrorResponse(ErrorTypeInvalidRequest, message)
}

// NewAuthenticationError creates an error response for authentication failures (401).
func NewAuthenticationError(message string) *ErrorResponse {
	return NewErrorResponse(ErrorTypeAuthentication, message)
}

// NewNotFoundError creates an error response for missing resources (404).
func NewNotFoundError(message string) *ErrorResponse {
	return NewErrorResponse(ErrorTypeNotFound, message)
}

// NewAPIError creates an error response for internal server errors (500).
func NewAPIError(message string) *ErrorResponse {
	return NewErrorResponse(ErrorTypeAPI, message)
}

// NewTimeoutError creates an error response for upstream timeouts (504).
func NewTimeoutError(message string) *ErrorResponse {
	return NewErrorResponse(ErrorTypeTimeout, message)
}

// HTTPStatusCode returns the appropriate HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return 400
	case ErrorTypeAuthentication:
		return 401
	case ErrorTypeNotFound:
		return 404
	case ErrorTypeTimeout:
		return 504
	default:
		return 500
	}
}
