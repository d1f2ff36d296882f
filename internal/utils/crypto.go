package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// GenerateSecureCode returns a random uppercase hex code, safe for use
// inside transaction identifiers.
func GenerateSecureCode() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// QRSigner produces keyed BLAKE2b signatures for generated QR
// payloads. Verification is advisory: externally produced QR codes
// carry no signature and remain valid.
type QRSigner struct {
	key []byte
}

// NewQRSigner creates a signer. An empty key disables signing.
func NewQRSigner(key string) *QRSigner {
	return &QRSigner{key: []byte(key)}
}

// Enabled reports whether a signing key is configured.
func (s *QRSigner) Enabled() bool {
	return len(s.key) > 0
}

// Sign returns the base64 keyed hash of the payload.
func (s *QRSigner) Sign(payload []byte) (string, error) {
	h, err := blake2b.New256(s.key)
	if err != nil {
		return "", err
	}
	h.Write(payload)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

// Verify checks a signature produced by Sign.
func (s *QRSigner) Verify(payload []byte, signature string) bool {
	want, err := s.Sign(payload)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(signature)) == 1
}

// SignPayload signs the canonical form of a JSON payload.
func (s *QRSigner) SignPayload(raw []byte) (string, error) {
	return s.Sign(CanonicalJSON(raw))
}

// VerifyPayload verifies a signature over the canonical form.
func (s *QRSigner) VerifyPayload(raw []byte, signature string) bool {
	return s.Verify(CanonicalJSON(raw), signature)
}

// CanonicalJSON strips the "sig" field and re-marshals with sorted
// keys so the generator and the verifier hash the same bytes.
func CanonicalJSON(raw []byte) []byte {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}
	delete(m, "sig")
	out, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return out
}
