package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	CodeLength = 8

	codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var charsetLen = big.NewInt(int64(len(codeChars)))

// GenerateCode returns an 8 character uppercase alphanumeric code. It is used
// for room ids and member user ids alike.
func GenerateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(CodeLength)

	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeChars[n.Int64()])
	}

	return sb.String(), nil
}

func IsValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeChars, rune(code[i])) {
			return false
		}
	}
	return true
}
