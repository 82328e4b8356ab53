package common

import "crypto/rand"

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// MakeRandString generates a random lowercase-alphanumeric string of the
// given length, suitable for token and check identifiers. It returns an
// error only if the system random source fails.
func MakeRandString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b), nil
}
