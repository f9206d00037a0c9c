package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput is returned when a submitted field is blank or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTooManyCategories is returned when more than the allowed number of distinct categories is selected.
	ErrTooManyCategories = errors.New("too many categories")
	// ErrDuplicateUsername is returned when registering a username that is already taken.
	ErrDuplicateUsername = errors.New("username is already taken")
	// ErrRecipeNotFound is returned when a recipe id does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotAuthenticated is returned when credentials do not match.
	ErrNotAuthenticated = errors.New("invalid username or password")
	// ErrPersistence is returned when the store rejects a write.
	ErrPersistence = errors.New("failed to save data")
	// ErrImageTooLarge is returned when an uploaded image exceeds the per-file limit.
	ErrImageTooLarge = errors.New("image exceeds the maximum upload size")
)

// CategoryLimitError reports how many distinct categories were selected against the limit.
type CategoryLimitError struct {
	Count int
	Max   int
}

func (e *CategoryLimitError) Error() string {
	return fmt.Sprintf("at most %d categories can be selected, %d selected", e.Max, e.Count)
}

// Is makes errors.Is(err, ErrTooManyCategories) hold.
func (e *CategoryLimitError) Is(target error) bool {
	return target == ErrTooManyCategories
}

// Invalid wraps ErrInvalidInput with a field specific message.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Persistence wraps a storage failure as ErrPersistence while keeping the cause.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrTooManyCategories):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "TOO_MANY_CATEGORIES")
	case errors.Is(err, ErrInvalidInput):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	case errors.Is(err, ErrImageTooLarge):
		return NewHTTPError(http.StatusRequestEntityTooLarge, err.Error(), "IMAGE_TOO_LARGE")
	case errors.Is(err, ErrDuplicateUsername):
		return NewHTTPError(http.StatusConflict, err.Error(), "DUPLICATE_USERNAME")
	case errors.Is(err, ErrRecipeNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "RECIPE_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrNotAuthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "NOT_AUTHENTICATED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
