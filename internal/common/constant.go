package common

// AuthHeaderName is the HTTP header that carries the bearer access token
// on authenticated requests.
const AuthHeaderName = "Authorization"

// CodeLength is the exact length of a phone verification code. Submissions
// of any other length are rejected client-side before a network call is made.
const CodeLength = 6

// SnapshotLimit is the advisory cap on the historical batch fetched per
// owner-session. Live pushes are never dropped to enforce it.
const SnapshotLimit = 10
