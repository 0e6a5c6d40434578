package sqlite

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// gen60CharString returns a random string the length of a bcrypt hash,
// which is what the password_hash check constraint expects.
func gen60CharString() string {
	hashBytes := make([]byte, 45)
	_, _ = rand.Read(hashBytes)
	return base64.RawURLEncoding.EncodeToString(hashBytes)
}

func genEmail() string {
	return fmt.Sprintf("%s@example.com", gen60CharString()[:8])
}
