// Package auth implements the presigned-URL authenticator: Ed25519 signing
// and verification of short-lived request descriptors, plus the static
// bearer-token fallback.
package auth

import (
	"crypto/ed25519"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Method names how a request was authenticated, for logging and for the
// auth_failures counter's method label.
type Method string

const (
	MethodPresign Method = "presign"
	MethodBearer  Method = "bearer"
)

// Descriptor is the canonical input to signature verification. Field order
// is part of the wire contract: the JSON encoding must be {v,exp,m,b,p}.
type Descriptor struct {
	Version int    `json:"v"`
	Expiry  int64  `json:"exp"`
	Method  string `json:"m"`
	Bucket  string `json:"b"`
	Path    string `json:"p"`
}

const currentVersion = 1

// b64 is the URL-safe, unpadded alphabet the wire format uses for both the
// presign payload and the Ed25519 key material.
var b64 = base64.URLEncoding.WithPadding(base64.NoPadding)

// State holds the process-wide authenticator: the Ed25519 public key used to
// verify presigned tokens, and the optional bearer token. It is built once at
// startup and never mutated.
type State struct {
	public ed25519.PublicKey
	bearer string
}

// New validates that publicKeyB64 and privateKeyB64 form a matching Ed25519
// pair and builds the authenticator. bearerToken may be empty, in which case
// the bearer path is disabled.
func New(publicKeyB64, privateKeyB64, bearerToken string) (*State, error) {
	publicBytes, err := decodeKey(publicKeyB64)
	if err != nil {
		return nil, err
	}
	seedBytes, err := decodeKey(privateKeyB64)
	if err != nil {
		return nil, err
	}
	if len(publicBytes) != ed25519.PublicKeySize || len(seedBytes) != ed25519.SeedSize {
		return nil, ErrInvalidKeyMaterial
	}

	signingKey := ed25519.NewKeyFromSeed(seedBytes)
	derived := signingKey.Public().(ed25519.PublicKey)
	if subtle.ConstantTimeCompare(derived, publicBytes) != 1 {
		return nil, ErrKeyMismatch
	}

	return &State{public: ed25519.PublicKey(publicBytes), bearer: bearerToken}, nil
}

func decodeKey(value string) ([]byte, error) {
	decoded, err := b64.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidKeyMaterial
	}
	return decoded, nil
}

// Sign encodes d and signs it with privateKeyB64, returning the wire-format
// "sig" query value. It exists for keygen/tooling and tests; the server never
// signs tokens itself.
func Sign(d Descriptor, privateKeyB64 string) (string, error) {
	seedBytes, err := decodeKey(privateKeyB64)
	if err != nil {
		return "", err
	}
	if len(seedBytes) != ed25519.SeedSize {
		return "", ErrInvalidKeyMaterial
	}
	signingKey := ed25519.NewKeyFromSeed(seedBytes)

	d.Version = currentVersion
	payload, err := json.Marshal(d)
	if err != nil {
		return "", err
	}

	signature := ed25519.Sign(signingKey, payload)
	return b64.EncodeToString(payload) + "." + b64.EncodeToString(signature), nil
}

// Verify checks sig against the observed method/bucket/path tuple, in the
// order mandated by the wire contract: split, decode, verify signature,
// parse version, check expiry, then compare the observed fields byte-exact.
func (s *State) Verify(sig, observedMethod, observedBucket, observedPath string, now time.Time) error {
	payloadB64, signatureB64, ok := strings.Cut(sig, ".")
	if !ok || strings.Contains(signatureB64, ".") {
		return ErrMalformed
	}

	payload, err := b64.DecodeString(payloadB64)
	if err != nil {
		return ErrMalformed
	}
	signature, err := b64.DecodeString(signatureB64)
	if err != nil {
		return ErrMalformed
	}
	if len(signature) != ed25519.SignatureSize {
		return ErrMalformed
	}

	if !ed25519.Verify(s.public, payload, signature) {
		return ErrBadSignature
	}

	var d Descriptor
	if err := json.Unmarshal(payload, &d); err != nil {
		return ErrMalformed
	}
	if d.Version != currentVersion {
		return ErrUnsupportedVersion
	}
	if now.Unix() >= d.Expiry {
		return ErrExpired
	}
	if d.Method != observedMethod {
		return ErrMethodMismatch
	}
	if d.Bucket != observedBucket {
		return ErrBucketMismatch
	}
	if d.Path != observedPath {
		return ErrPathMismatch
	}

	return nil
}

// VerifyBearer compares token against the configured bearer token in
// constant time. It fails with ErrBearerNotConfigured when no bearer token
// was configured at startup, disabling the path entirely.
func (s *State) VerifyBearer(token string) error {
	if s.bearer == "" {
		return ErrBearerNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.bearer)) != 1 {
		return ErrInvalidBearer
	}
	return nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value, returning "" if the header is absent or malformed.
func BearerToken(headers http.Header) string {
	value := headers.Get("Authorization")
	if value == "" {
		return ""
	}
	fields := strings.Fields(value)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "bearer") || fields[1] == "" {
		return ""
	}
	return fields[1]
}

// Authenticate tries the bearer path first, then presign, matching the
// order the original implementation checks them in. It returns the method
// used on success; on failure it returns the method of the last path tried
// (empty when no credentials were presented) with the most specific error
// encountered.
func (s *State) Authenticate(headers http.Header, sig, method, bucket, path string, now time.Time) (Method, error) {
	var lastErr error
	var lastMethod Method

	if token := BearerToken(headers); token != "" {
		if err := s.VerifyBearer(token); err == nil {
			return MethodBearer, nil
		} else {
			lastMethod, lastErr = MethodBearer, err
		}
	}

	if sig != "" {
		if err := s.Verify(sig, method, bucket, path, now); err == nil {
			return MethodPresign, nil
		} else {
			lastMethod, lastErr = MethodPresign, err
		}
	} else if lastErr == nil {
		lastErr = ErrMissingCredentials
	}

	return lastMethod, lastErr
}
