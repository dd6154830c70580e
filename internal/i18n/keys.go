// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"

	// Applications
	KeyApplicationNotFound          = "application.not_found"
	KeyApplicationNotEditable       = "application.not_editable"
	KeyApplicationInvalidStatus     = "application.invalid_status"
	KeyApplicationInvalidTransition = "application.invalid_status_change"
	KeyApplicationHandlerOnlyField  = "application.handler_only_field"
	KeyApplicationAccessDenied      = "application.access_denied"
	KeyApplicationCalculationFailed = "application.calculation_failed"

	// Companies
	KeyCompanyNotFound = "company.not_found"

	// Exports
	KeyExportCreated = "export.created"
	KeyExportEmpty   = "export.empty"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// Rate limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"
)
