package account

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CodeLength is the number of characters in a verification code.
const CodeLength = 6

// CodeGenerator produces verification codes.
type CodeGenerator func() (string, error)

// NewVerificationCode returns 6 upper-case hexadecimal characters taken from a random UUID.
func NewVerificationCode() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "generating verification code")
	}
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:CodeLength]), nil
}

// normalizeCode makes submitted codes comparable to issued ones.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
