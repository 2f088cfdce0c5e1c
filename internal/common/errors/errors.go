// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeLocationUnresolved  ErrorCode = "LOCATION_UNRESOLVED"
	ErrCodeCommodityUnresolved ErrorCode = "COMMODITY_UNRESOLVED"
	ErrCodeCommodityMissing    ErrorCode = "COMMODITY_MISSING"

	ErrCodeNoDataFound    ErrorCode = "NO_DATA_FOUND"
	ErrCodeMandiAPIFailed ErrorCode = "MANDI_API_FAILED"
	ErrCodeMandiTimeout   ErrorCode = "MANDI_API_TIMEOUT"

	ErrCodeGeocodingFailed  ErrorCode = "GEOCODING_FAILED"
	ErrCodeGeocodingTimeout ErrorCode = "GEOCODING_TIMEOUT"
	ErrCodeWeatherAPIFailed ErrorCode = "WEATHER_API_FAILED"
	ErrCodeWeatherTimeout   ErrorCode = "WEATHER_API_TIMEOUT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeTablesInvalid          ErrorCode = "TABLES_INVALID"
	ErrCodeAnswerBuildFailed      ErrorCode = "ANSWER_BUILD_FAILED"
	ErrCodeProfileNotFound        ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// Sentinel errors for resolution and data-availability outcomes. Handlers use
// errors.Is against these to route a failure as a clarification prompt, a
// "no data" answer, or an upstream retry.
var (
	ErrUnresolvedLocation  = errors.New("location could not be resolved")
	ErrUnresolvedCommodity = errors.New("commodity could not be resolved")
	ErrNoDataFound         = errors.New("no records found")
	ErrUpstreamTimeout     = errors.New("upstream request timed out")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// NoDataError reports that an upstream returned zero usable records for a
// state/commodity pair. It unwraps to ErrNoDataFound and is never widened to
// a different scope than the one queried.
type NoDataError struct {
	State      string
	Commodity  string
	WindowDays int
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no records found for %s in %s", e.Commodity, e.State)
}

func (e *NoDataError) Unwrap() error { return ErrNoDataFound }

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewLocationUnresolvedError creates a non-retryable resolution error. The
// caller is expected to ask the user for their state instead of retrying.
func NewLocationUnresolvedError(raw string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLocationUnresolved,
		Message:   "Location could not be resolved to a state",
		Details:   fmt.Sprintf("input: %s", raw),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCommodityUnresolvedError creates a non-retryable resolution error.
func NewCommodityUnresolvedError(raw string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCommodityUnresolved,
		Message:   "Commodity not found in vocabulary",
		Details:   fmt.Sprintf("input: %s", raw),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCommodityMissingError creates a non-retryable error for price queries
// that never mentioned a commodity.
func NewCommodityMissingError() *StandardError {
	return &StandardError{
		Code:      ErrCodeCommodityMissing,
		Message:   "Price query did not mention a commodity",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoDataFoundError creates a non-retryable empty-result error scoped to the
// exact state and commodity that were queried.
func NewNoDataFoundError(state, commodity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoDataFound,
		Message:   "No price records found",
		Details:   fmt.Sprintf("state: %s, commodity: %s", state, commodity),
		Retryable: false,
		Metadata: map[string]interface{}{
			"state":     state,
			"commodity": commodity,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewMandiAPIFailedError creates a retryable market data API error.
func NewMandiAPIFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMandiAPIFailed,
		Message:   "Market price API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMandiTimeoutError creates a retryable market data timeout error.
func NewMandiTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMandiTimeout,
		Message:   "Market price API timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodingFailedError creates a retryable geocoding error.
func NewGeocodingFailedError(place string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodingFailed,
		Message:   "Geocoding API error",
		Details:   fmt.Sprintf("place: %s, error: %s", place, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodingTimeoutError creates a retryable geocoding timeout error.
func NewGeocodingTimeoutError(place string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodingTimeout,
		Message:   "Geocoding API timeout",
		Details:   fmt.Sprintf("place: %s", place),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeatherAPIFailedError creates a retryable forecast API error.
func NewWeatherAPIFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeatherAPIFailed,
		Message:   "Weather forecast API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeatherTimeoutError creates a retryable forecast timeout error.
func NewWeatherTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeWeatherTimeout,
		Message:   "Weather forecast API timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error. Callers normally
// degrade to the upstream instead of failing the job.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTablesInvalidError creates a non-retryable canonical tables error.
func NewTablesInvalidError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTablesInvalid,
		Message:   "Canonical tables document invalid",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnswerBuildFailedError creates a non-retryable composition error.
func NewAnswerBuildFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnswerBuildFailed,
		Message:   "Answer composition failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable profile lookup error.
func NewProfileNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "User profile not found",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. The codes
// are identical on both sides so process models can match on them directly.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeLocationUnresolved:       "LOCATION_UNRESOLVED",
	ErrCodeCommodityUnresolved:      "COMMODITY_UNRESOLVED",
	ErrCodeCommodityMissing:         "COMMODITY_MISSING",
	ErrCodeNoDataFound:              "NO_DATA_FOUND",
	ErrCodeMandiAPIFailed:           "MANDI_API_FAILED",
	ErrCodeMandiTimeout:             "MANDI_API_TIMEOUT",
	ErrCodeGeocodingFailed:          "GEOCODING_FAILED",
	ErrCodeGeocodingTimeout:         "GEOCODING_TIMEOUT",
	ErrCodeWeatherAPIFailed:         "WEATHER_API_FAILED",
	ErrCodeWeatherTimeout:           "WEATHER_API_TIMEOUT",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeCacheUnavailable:         "CACHE_UNAVAILABLE",
	ErrCodeTablesInvalid:            "TABLES_INVALID",
	ErrCodeAnswerBuildFailed:        "ANSWER_BUILD_FAILED",
	ErrCodeProfileNotFound:          "PROFILE_NOT_FOUND",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeMandiAPIFailed,
		ErrCodeGeocodingFailed,
		ErrCodeWeatherAPIFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeMandiTimeout,
		ErrCodeGeocodingTimeout,
		ErrCodeWeatherTimeout,
		ErrCodeCacheUnavailable:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LOCATION") || strings.Contains(codeStr, "COMMODITY"):
		return "RESOLUTION"
	case strings.Contains(codeStr, "MANDI") || strings.Contains(codeStr, "NO_DATA"):
		return "MARKET"
	case strings.Contains(codeStr, "GEOCODING") || strings.Contains(codeStr, "WEATHER"):
		return "WEATHER"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CACHE"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "TABLES") || strings.Contains(codeStr, "ANSWER"):
		return "COMPOSITION"
	default:
		return "OTHER"
	}
}
