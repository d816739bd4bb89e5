package id

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID32 returns a random (v4) UUID as 32 lowercase hex characters, the
// format used for public loan and approval ids.
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
