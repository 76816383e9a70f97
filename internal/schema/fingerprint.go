package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint computes a deterministic identifier for the schema.
// Formula: SHA256(compact encoding). Returns hex (64 characters).
func Fingerprint(s *Schema) (string, error) {
	data, err := MarshalCompact(s)
	if err != nil {
		return "", fmt.Errorf("encode schema: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
