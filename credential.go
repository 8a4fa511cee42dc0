package membership

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DigestFunc hashes a secret into its stored representation
type DigestFunc func(secret string) string

// MD5Digest is the default digest: lowercase hex MD5
func MD5Digest(secret string) string {
	sum := md5.Sum([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// DigestVerifier supports plain digests, salted challenges of the
// form "hash:salt", and bcrypt stored digests.
type DigestVerifier struct {
	digest            DigestFunc
	allowPasswordless bool
}

var _ CredentialVerifier = (*DigestVerifier)(nil)

// NewDigestVerifier returns a verifier using MD5 digests
func NewDigestVerifier(allowPasswordless bool) *DigestVerifier {
	return &DigestVerifier{
		digest:            MD5Digest,
		allowPasswordless: allowPasswordless,
	}
}

// WithDigest overrides the digest function
func (v *DigestVerifier) WithDigest(fn DigestFunc) *DigestVerifier {
	if fn != nil {
		v.digest = fn
	}
	return v
}

// AllowsPasswordless reports whether empty stored digests accept any
// credential.
func (v *DigestVerifier) AllowsPasswordless() bool {
	return v.allowPasswordless
}

// Verify validates presented against storedDigest
func (v *DigestVerifier) Verify(storedDigest, presented string) bool {
	if storedDigest == "" {
		return v.allowPasswordless
	}

	if isBcryptDigest(storedDigest) {
		if strings.Contains(presented, ":") {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(storedDigest), []byte(presented)) == nil
	}

	parts := strings.Split(presented, ":")
	if len(parts) == 1 {
		return strings.EqualFold(v.digest(presented), storedDigest)
	}

	// hash:salt, any further segments are ignored
	expected := v.digest(strings.ToLower(storedDigest) + parts[1])
	return strings.EqualFold(parts[0], expected)
}

// HashSecret returns the stored form of secret for the given digest.
// A nil digest produces a bcrypt hash.
func HashSecret(secret string, digest DigestFunc) (string, error) {
	if digest != nil {
		return digest(secret), nil
	}

	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func isBcryptDigest(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}
