package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// PublicKeyPrefix marks the key half that is safe to log and display
	PublicKeyPrefix = "ak-"
	// SecretKeyPrefix marks the key half that is shown once and stored hashed
	SecretKeyPrefix = "as-"

	publicKeyBytes = 16
	secretKeyBytes = 24
)

var (
	randReader = rand.Reader

	// publicPool reuses buffers for public key generation (16 bytes)
	publicPool = sync.Pool{
		New: func() any {
			b := make([]byte, publicKeyBytes)
			return &b
		},
	}

	// secretPool reuses buffers for secret key generation (24 bytes)
	secretPool = sync.Pool{
		New: func() any {
			b := make([]byte, secretKeyBytes)
			return &b
		},
	}
)

// NewPublicKey generates a new public API key (ak- plus 32 hex characters)
func NewPublicKey() string {
	bufPtr := publicPool.Get().(*[]byte)
	defer publicPool.Put(bufPtr)
	buf := *bufPtr

	if _, err := randReader.Read(buf); err != nil {
		// Fallback to time-based key if random fails
		return PublicKeyPrefix + fmt.Sprintf("%016x%016x", time.Now().UnixNano(), time.Now().UnixNano())
	}

	return PublicKeyPrefix + hex.EncodeToString(buf)
}

// NewSecretKey generates a new secret API key (as- plus 48 hex characters)
func NewSecretKey() string {
	bufPtr := secretPool.Get().(*[]byte)
	defer secretPool.Put(bufPtr)
	buf := *bufPtr

	if _, err := randReader.Read(buf); err != nil {
		// Fallback to time-based key if random fails
		return SecretKeyPrefix + fmt.Sprintf("%016x%016x%016x",
			time.Now().UnixNano(), time.Now().UnixNano(), time.Now().UnixNano())
	}

	return SecretKeyPrefix + hex.EncodeToString(buf)
}

// HashSecret returns the hex SHA-256 digest of a secret key. Only the
// digest is ever stored.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifySecret compares a presented secret against a stored digest in
// constant time.
func VerifySecret(secret, storedHash string) bool {
	presented := HashSecret(secret)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(storedHash)) == 1
}

// ValidatePublicKey reports whether s looks like a generated public key
func ValidatePublicKey(s string) bool {
	body, ok := strings.CutPrefix(s, PublicKeyPrefix)
	if !ok || len(body) != publicKeyBytes*2 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}

// ValidateSecretKey reports whether s looks like a generated secret key
func ValidateSecretKey(s string) bool {
	body, ok := strings.CutPrefix(s, SecretKeyPrefix)
	if !ok || len(body) != secretKeyBytes*2 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}

// NewUUID generates a new UUID v4
func NewUUID() string {
	return uuid.New().String()
}

// ParseUUID parses and validates a UUID string
func ParseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// ParseUUIDOrNil parses a UUID string, returning uuid.Nil on error.
// This is a safe alternative for user input that doesn't require error handling.
func ParseUUIDOrNil(id string) uuid.UUID {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil
	}
	return u
}

// ValidateUUID validates a UUID format
func ValidateUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
