package utils

import "math/rand"

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// RandomAlphabetString returns a random lowercase string of the given length,
// mainly used to name temporary test databases.
func RandomAlphabetString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
