package controlqueue

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Broker auth plugins (mosquitto-go-auth and friends) understand
// PBKDF2$sha512$<iterations>$<salt>$<hash>. Device passwords are JWTs,
// longer than the 72 bytes bcrypt accepts.
const (
	hashIterations = 100000
	hashKeyLength  = 64
	hashSaltLength = 16
)

func hashPassword(password string) (string, error) {
	salt := make([]byte, hashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, hashIterations, hashKeyLength, sha512.New)
	return fmt.Sprintf("PBKDF2$sha512$%d$%s$%s",
		hashIterations,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key)), nil
}

func checkPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "PBKDF2" || parts[1] != "sha512" {
		return false
	}

	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations <= 0 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha512.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
