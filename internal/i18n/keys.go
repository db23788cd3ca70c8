package i18n

// Error message translation keys.
const (
	// ErrKeyInvalidRequest indicates an invalid request.
	ErrKeyInvalidRequest = "error.invalid_request"
	// ErrKeyInvalidRequestBody indicates an invalid request body.
	ErrKeyInvalidRequestBody = "error.invalid_request_body"
	// ErrKeyInternalError indicates an internal server error.
	ErrKeyInternalError = "error.internal_error"
	// ErrKeyUnauthorized indicates missing or invalid authentication.
	ErrKeyUnauthorized = "error.unauthorized"
	// ErrKeyAPIKeyRequired indicates that an API key is required.
	ErrKeyAPIKeyRequired = "error.api_key_required"
	// ErrKeyInvalidAPIKey indicates an invalid API key.
	ErrKeyInvalidAPIKey = "error.invalid_api_key"
	// ErrKeyNotFound indicates a resource was not found.
	ErrKeyNotFound = "error.not_found"
	// ErrKeyRateLimitExceeded indicates rate limit exceeded.
	ErrKeyRateLimitExceeded = "error.rate_limit_exceeded"
	// ErrKeyConflict indicates a conflict with current state.
	ErrKeyConflict = "error.conflict"
	// ErrKeyInvalidToken indicates an invalid or expired JWT token.
	ErrKeyInvalidToken = "error.invalid_token"
	// ErrKeyTokenRequired indicates that a JWT token is required.
	ErrKeyTokenRequired = "error.token_required"
	// ErrKeyTimeout indicates a request timeout.
	ErrKeyTimeout = "error.timeout"

	// ErrKeyBundleNotFound indicates an unknown bundle id.
	ErrKeyBundleNotFound = "error.bundle_not_found"
	// ErrKeySessionNotFound indicates an unknown or expired session.
	ErrKeySessionNotFound = "error.session_not_found"
	// ErrKeyInvalidAction indicates a selection action that cannot be applied.
	ErrKeyInvalidAction = "error.invalid_action"
	// ErrKeySelectionInvalid indicates a selection that breaks the bundle rules.
	ErrKeySelectionInvalid = "error.selection_invalid"
	// ErrKeyNothingToSubmit indicates no cart line item could be built.
	ErrKeyNothingToSubmit = "error.nothing_to_submit"
	// ErrKeySubmissionInFlight indicates an overlapping cart submission.
	ErrKeySubmissionInFlight = "error.submission_in_flight"
	// ErrKeyCartUnavailable indicates the prepare or cart endpoint failed.
	ErrKeyCartUnavailable = "error.cart_unavailable"
	// ErrKeyCatalogUnavailable indicates the bundle store could not be reached.
	ErrKeyCatalogUnavailable = "error.catalog_unavailable"
)

// Violation message keys, suffixed with the violation code.
const (
	// ViolationKeyPrefix prefixes every violation code.
	ViolationKeyPrefix = "violation."
)

// Success message translation keys.
const (
	// SuccessKeyQuoteCalculated indicates a quote was evaluated.
	SuccessKeyQuoteCalculated = "success.quote_calculated"
	// SuccessKeyCartSubmitted indicates the selection was added to the cart.
	SuccessKeyCartSubmitted = "success.cart_submitted"
	// SuccessKeySessionOpened indicates a selection session was started.
	SuccessKeySessionOpened = "success.session_opened"
	// SuccessKeySessionUpdated indicates actions were applied to a session.
	SuccessKeySessionUpdated = "success.session_updated"
)
