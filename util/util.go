package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ConvertStringToInt32 converts a string to int32.
func ConvertStringToInt32(src string) (int32, error) {
	parsed, err := strconv.ParseInt(src, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(parsed), nil
}

// HasPrefixes returns true if the string s has any of the given prefixes.
func HasPrefixes(src string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(src, prefix) {
			return true
		}
	}
	return false
}

// ValidateEmail validates the email.
func ValidateEmail(email string) bool {
	if _, err := mail.ParseAddress(email); err != nil {
		return false
	}
	return true
}

func GenUUID() string {
	return uuid.New().String()
}

var letters = []rune("0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// RandomString returns a random string with length n.
func RandomString(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		// The reason for using crypto/rand instead of math/rand is that
		// the former relies on hardware to generate random numbers and
		// thus has a stronger source of random numbers.
		randNum, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		if _, err := sb.WriteRune(letters[randNum.Uint64()]); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// GenerateNewDirName is a helper function to generate a new directory name
// when the wanted one is already taken.
func GenerateNewDirName(dirPath string) string {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return dirPath // directory does not exist, return the same name
	}

	parent := filepath.Dir(dirPath)
	base := filepath.Base(dirPath)

	existingDirs, err := filepath.Glob(filepath.Join(parent, base+"_*[0-9]"))
	if err != nil {
		return dirPath
	}

	index := 1
	for _, existingDir := range existingDirs {
		existingBase := filepath.Base(existingDir)
		parts := strings.Split(existingBase, "_")
		existingIndex, err := strconv.Atoi(parts[len(parts)-1])
		if err == nil && existingIndex >= index {
			index = existingIndex + 1
		}
	}
	return filepath.Join(parent, fmt.Sprintf("%s_%d", base, index))
}
