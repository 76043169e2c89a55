package xerr

// Business codes carried in every JSON response.
const (
	SuccessCode = 20000

	// --- client request errors (400xx) ---
	InvalidParamsCode     = 40000 // malformed body, path or query
	ValidationFailedCode  = 40001 // well-formed but semantically invalid
	InvalidVisibilityCode = 40002 // visibility not public or user_specific
	SelfShareCode         = 40003 // owner tried to share a dive with themselves

	// --- authentication (401xx) ---
	UnauthorizedCode       = 40100
	TokenInvalidCode       = 40101
	InvalidCredentialsCode = 40102
	AccountDeactivatedCode = 40103

	// --- permission (403xx) ---
	ForbiddenCode        = 40300
	PermissionDeniedCode = 40301 // identity does not own the resource

	// --- not found (404xx) ---
	NotFoundCode      = 40400
	UserNotFoundCode  = 40401
	DiveNotFoundCode  = 40402
	ShareNotFoundCode = 40404

	// --- conflicts (409xx) ---
	UserAlreadyExistsCode  = 40900
	EmailAlreadyExistsCode = 40901

	// --- gone (410xx) ---
	ShareExpiredCode = 41000

	// --- server errors (500xx) ---
	InternalServerErrorCode = 50000
	DatabaseErrorCode       = 50001
)
