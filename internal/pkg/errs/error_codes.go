/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Room and Game Business Logic Errors
const (
	// ErrRoomNotFound indicates that the room targeted by an operation does not exist.
	ErrRoomNotFound = 2101

	// ErrRoomNameInvalid indicates that the requested room name failed validation.
	ErrRoomNameInvalid = 2102
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrAlreadyLoggedIn indicates the requester already holds an authenticated session.
	ErrAlreadyLoggedIn = 3001

	// ErrInvalidUsername indicates the supplied username failed format validation.
	ErrInvalidUsername = 3002

	// ErrInvalidPassword indicates the supplied password failed length validation.
	ErrInvalidPassword = 3003

	// ErrUserAlreadyExists indicates a registration attempt with a taken username.
	ErrUserAlreadyExists = 3004

	// ErrInvalidCredentials indicates a login attempt with a wrong username or password.
	ErrInvalidCredentials = 3005

	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = 3006

	// ErrUnauthorized indicates the request requires a valid identity token.
	ErrUnauthorized = 3007
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
