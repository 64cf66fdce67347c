package httputil

// Machine-readable error codes returned alongside error messages.
// Frontends branch on these instead of parsing message text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeFirstNameRequired  = "FIRST_NAME_REQUIRED"
	CodeLastNameRequired   = "LAST_NAME_REQUIRED"
	CodeCityRequired       = "CITY_REQUIRED"
	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotFound      = "EMAIL_NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeTokenRequired      = "TOKEN_REQUIRED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeSamePassword       = "SAME_PASSWORD"
	CodeCityNotFound       = "CITY_NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)
