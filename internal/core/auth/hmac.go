package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const keyPrefix = "rs-v1-"

// ParseAPIKey splits rs-v1-<secret_id>-<random_data>. secret_id is 32 and
// random_data 64 lower-case hex chars.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return "", "", ErrInvalidKeyFormat
	}
	secretID, randomData, ok = strings.Cut(rest, "-")
	if !ok || len(secretID) != 32 || len(randomData) != 64 {
		return "", "", ErrInvalidKeyFormat
	}
	if !isLowerHex(secretID) || !isLowerHex(randomData) {
		return "", "", ErrInvalidKeyFormat
	}
	return secretID, randomData, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ComputeHMAC computes the HMAC-SHA256 of apiKey under secret.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// VerifyHMAC compares two hashes in constant time.
func VerifyHMAC(expectedHash, computedHash []byte) bool {
	return hmac.Equal(expectedHash, computedHash)
}

// FormatAPIKey constructs an API key from its parts.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("%s%s-%s", keyPrefix, secretID, randomData)
}

// IssuedKey is a freshly created key. Key is shown once and never stored.
type IssuedKey struct {
	APIKeyID string
	ClientID string
	Key      string
}

// IssueKey creates a key for clientID signed with secretID and stores its hash.
func (a *Authenticator) IssueKey(ctx context.Context, clientID, secretID string) (*IssuedKey, error) {
	secret, ok := a.secrets[secretID]
	if !ok {
		return nil, ErrUnknownKey
	}

	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	issued := &IssuedKey{
		APIKeyID: uuid.Must(uuid.NewV7()).String(),
		ClientID: clientID,
		Key:      FormatAPIKey(secretID, hex.EncodeToString(random)),
	}
	now := a.now().UTC().Format(time.RFC3339)
	if _, err := a.queries.Exec(ctx, "insert-api-key", issued.APIKeyID, clientID, ComputeHMAC(secret, issued.Key), now); err != nil {
		return nil, fmt.Errorf("failed to store key: %w", err)
	}
	return issued, nil
}

// RevokeKey marks apiKeyID revoked.
func (a *Authenticator) RevokeKey(ctx context.Context, apiKeyID string) error {
	res, err := a.queries.Exec(ctx, "revoke-api-key", a.now().UTC(), apiKeyID)
	if err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrInvalidKey
	}
	return nil
}
