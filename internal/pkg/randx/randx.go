/*
Package randx provides functions for generating cryptographically secure random identifiers.

It is primarily used to generate the short user ids and room ids clients see on the wire,
and standard UUID event ids.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// UpperChars defines the character set used for user id suffixes (0-9, A-Z).
	UpperChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// LowerChars defines the character set used for room id suffixes (0-9, a-z).
	LowerChars = "0123456789abcdefghijklmnopqrstuvwxyz"

	// UserIDPrefix is the prefix of every generated user id.
	UserIDPrefix = "U"

	// UserIDRawLength is the fixed length of the random part of a user id.
	UserIDRawLength = 5

	// RoomIDPrefix is the prefix of every generated room id.
	RoomIDPrefix = "room_"

	// RoomIDRawLength is the fixed length of the random part of a room id.
	RoomIDRawLength = 6
)

func randomString(charset string, length int) (string, error) {
	result := make([]byte, length)
	max := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %v", err)
		}
		result[i] = charset[num.Int64()]
	}

	return string(result), nil
}

// UserID generates a short display user id of the form "U" + 5 uppercase alphanumeric characters.
func UserID() (string, error) {
	suffix, err := randomString(UpperChars, UserIDRawLength)
	if err != nil {
		return "", err
	}
	return UserIDPrefix + suffix, nil
}

// RoomID generates a room id of the form "room_" + 6 lowercase alphanumeric characters.
func RoomID() (string, error) {
	suffix, err := randomString(LowerChars, RoomIDRawLength)
	if err != nil {
		return "", err
	}
	return RoomIDPrefix + suffix, nil
}

// EventID generates a standard UUID v4 string to serve as a unique identifier for an event.
func EventID() string {
	return uuid.New().String()
}

// IsValidUserID checks if the given string is a well-formed generated user id.
func IsValidUserID(id string) bool {
	if !strings.HasPrefix(id, UserIDPrefix) {
		return false
	}

	rawID := id[len(UserIDPrefix):]
	if len(rawID) != UserIDRawLength {
		return false
	}

	for _, char := range rawID {
		if !strings.ContainsRune(UpperChars, char) {
			return false
		}
	}

	return true
}

// Nickname generates a random nickname with a "User_" prefix and 6 random characters.
func Nickname() (string, error) {
	suffix, err := randomString(UpperChars, 6)
	if err != nil {
		return "", err
	}
	return "User_" + suffix, nil
}
