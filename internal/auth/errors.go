package auth

// Error is the taxonomy of authentication failures. Every variant maps to a
// generic 401 at the HTTP surface; the variant itself is only ever logged,
// never echoed to the client, so it cannot be used as an oracle to probe
// which part of the token was wrong.
type Error string

const (
	ErrMalformed           Error = "malformed"
	ErrBadSignature        Error = "bad_signature"
	ErrUnsupportedVersion  Error = "unsupported_version"
	ErrExpired             Error = "expired"
	ErrMethodMismatch      Error = "method_mismatch"
	ErrBucketMismatch      Error = "bucket_mismatch"
	ErrPathMismatch        Error = "path_mismatch"
	ErrMissingCredentials  Error = "missing_credentials"
	ErrInvalidBearer       Error = "invalid_bearer"
	ErrBearerNotConfigured Error = "bearer_not_configured"
	ErrInvalidKeyMaterial  Error = "invalid_key_material"
	ErrKeyMismatch         Error = "key_mismatch"
)

func (e Error) Error() string { return string(e) }

// IsMismatch reports whether err is one of the three field-mismatch variants,
// useful for callers that want to log a finer-grained reason than "auth
// failed" without ever exposing it to the client.
func IsMismatch(err error) bool {
	switch err {
	case ErrMethodMismatch, ErrBucketMismatch, ErrPathMismatch:
		return true
	default:
		return false
	}
}
