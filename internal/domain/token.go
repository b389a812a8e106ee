package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NewToken returns a random single-use token for verification and password
// reset links: 32 lowercase hex characters.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
