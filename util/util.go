package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

var reUUID = regexp.MustCompile(`(?i)^([a-f\d]{8}(-[a-f\d]{4}){3}-[a-f\d]{12}?)$`)

const lowerAlphaNumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

// Returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	if list != nil {
		for i := range list {
			if list[i] == item {
				return true
			}
		}
	}
	return false
}

func LooksLikeUUID(uuid string) bool {
	return reUUID.MatchString(uuid)
}

// RandomLowerAlphaNumeric returns a string of length n drawn from
// a-z and 0-9 using crypto/rand.
func RandomLowerAlphaNumeric(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("Random string length must be positive, got %d", n)
	}
	max := big.NewInt(int64(len(lowerAlphaNumeric)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("Cannot read random data: %v", err)
		}
		buf[i] = lowerAlphaNumeric[idx.Int64()]
	}
	return string(buf), nil
}
