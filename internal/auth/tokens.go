package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rmitchellscott/ditherlab/internal/config"
)

// ResultTokenTTL returns the configured lifetime for signed result URLs.
func ResultTokenTTL() time.Duration {
	return config.GetDuration("RESULT_TOKEN_TTL", 24*time.Hour)
}

// SignResultToken creates a token granting download access to one job's
// rendered output for the given lifetime.
func SignResultToken(jobID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"job": jobID.String(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// VerifyResultToken checks a result token and returns the job it covers.
func VerifyResultToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errors.New("invalid result token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid result token claims")
	}
	jobClaim, ok := claims["job"].(string)
	if !ok {
		return uuid.Nil, errors.New("result token missing job claim")
	}
	return uuid.Parse(jobClaim)
}
