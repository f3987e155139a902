package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeMissingToken is used when the payment return carries no token_ws
	ErrCodeMissingToken = "ERR_MISSING_TOKEN"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
)

// Business rule error codes
const (
	ErrCodeInvalidState  = "ERR_INVALID_STATE"
	ErrCodeEmptyCart     = "ERR_EMPTY_CART"
	ErrCodeInvalidTotal  = "ERR_INVALID_TOTAL"
	ErrCodeInvalidPrice  = "ERR_INVALID_PRICE"
	ErrCodeOrderSettled  = "ERR_ORDER_NOT_PENDING"
	ErrCodeOrderNumbers  = "ERR_ORDER_NUMBER_EXHAUSTED"
	ErrCodeRequestTooBig = "ERR_REQUEST_TOO_LARGE"
)

// Input error codes
const (
	ErrCodeBadRequest        = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput      = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON       = "ERR_INVALID_JSON"
	ErrCodeInvalidType       = "ERR_INVALID_PRODUCT_TYPE"
	ErrCodeInvalidSort       = "ERR_INVALID_SORT"
	ErrCodeInvalidPriceRange = "ERR_INVALID_PRICE_RANGE"
)

// Payment error codes
const (
	// ErrCodePaymentRejected is used when the gateway declines the payment
	ErrCodePaymentRejected = "ERR_PAYMENT_REJECTED"
	// ErrCodeGatewayFailure is used when the gateway cannot be reached or answers garbage
	ErrCodeGatewayFailure = "ERR_GATEWAY_FAILURE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeMissingToken: http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,
	ErrCodeEmptyCart:     http.StatusUnprocessableEntity,
	ErrCodeInvalidTotal:  http.StatusUnprocessableEntity,
	ErrCodeInvalidPrice:  http.StatusUnprocessableEntity,
	ErrCodeOrderSettled:  http.StatusConflict,
	ErrCodeOrderNumbers:  http.StatusServiceUnavailable,
	ErrCodeRequestTooBig: http.StatusRequestEntityTooLarge,

	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeInvalidInput:      http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	ErrCodeInvalidType:       http.StatusBadRequest,
	ErrCodeInvalidSort:       http.StatusBadRequest,
	ErrCodeInvalidPriceRange: http.StatusBadRequest,

	ErrCodePaymentRejected: http.StatusPaymentRequired,
	ErrCodeGatewayFailure:  http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the ERR_ codes of the API
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_STATE":          ErrCodeInvalidState,
	"EMPTY_CART":             ErrCodeEmptyCart,
	"INVALID_TOTAL":          ErrCodeInvalidTotal,
	"INVALID_PRICE":          ErrCodeInvalidPrice,
	"ORDER_NOT_PENDING":      ErrCodeOrderSettled,
	"MISSING_TOKEN":          ErrCodeMissingToken,
	"INVALID_PRODUCT_TYPE":   ErrCodeInvalidType,
	"INVALID_SORT":           ErrCodeInvalidSort,
	"INVALID_PRICE_RANGE":    ErrCodeInvalidPriceRange,
	"ORDER_NUMBER_EXHAUSTED": ErrCodeOrderNumbers,
	"PAYMENT_REJECTED":       ErrCodePaymentRejected,
	"GATEWAY_FAILURE":        ErrCodeGatewayFailure,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
