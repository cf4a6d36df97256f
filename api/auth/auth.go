// Package auth mints and verifies the JWT access tokens used by the API.
package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// AccessTokenCookieName is the cookie carrying the token for browsers;
	// API clients use the Authorization bearer header instead.
	AccessTokenCookieName = "yomu.access-token"

	// AccessTokenDuration is the default session length.
	AccessTokenDuration = 7 * 24 * time.Hour

	Issuer        = "yomu"
	KeyID         = "v1"
	AudienceClaim = "user.access-token"

	signingMethod = "HS256"
)

type ClaimsMessage struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a token for the user, expiring at expireTime.
func GenerateAccessToken(username string, userID int32, expireTime time.Time, secret []byte) (string, error) {
	registeredClaims := jwt.RegisteredClaims{
		Issuer:   Issuer,
		Audience: jwt.ClaimStrings{AudienceClaim},
		IssuedAt: jwt.NewNumericDate(time.Now()),
		Subject:  strconv.FormatInt(int64(userID), 10),
	}
	if !expireTime.IsZero() {
		registeredClaims.ExpiresAt = jwt.NewNumericDate(expireTime)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &ClaimsMessage{
		Name:             username,
		RegisteredClaims: registeredClaims,
	})
	token.Header["kid"] = KeyID

	return token.SignedString(secret)
}

// ParseAccessToken verifies the signature and returns the embedded user ID
// and username.
func ParseAccessToken(tokenString string, secret []byte) (userID int32, username string, err error) {
	claims := &ClaimsMessage{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, "", errors.Wrap(err, "failed to parse access token")
	}
	if !token.Valid {
		return 0, "", errors.New("invalid access token")
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 32)
	if err != nil {
		return 0, "", errors.Wrap(err, "malformed token subject")
	}
	return int32(id), claims.Name, nil
}
