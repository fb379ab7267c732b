package common

// RequestIDHeaderName is the HTTP header (and gRPC metadata key) carrying the
// per-request correlation id.
const RequestIDHeaderName = "X-Request-Id"

// DefaultSessionCookieName is the session cookie name. It reuses the name of
// the legacy express-session cookie, so a leftover legacy value fails
// signature checks and is cleared on the next request.
const DefaultSessionCookieName = "connect.sid"

// FlashCookieName carries the one-shot success message shown on the next page.
const FlashCookieName = "inventory.flash"
