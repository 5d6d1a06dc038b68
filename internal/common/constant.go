package common

// Cookie names carrying the session token pair.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)

// RequestIDHeaderName is echoed on every response and honoured when a client
// supplies it.
const RequestIDHeaderName = "X-Request-ID"
