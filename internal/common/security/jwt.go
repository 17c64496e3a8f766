package security

import (
	"fmt"
	"time"

	"learncode/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	claimUserID = "user_id"
	claimRole   = "role"
)

// TokenAuth signs and verifies session tokens. InitJWT must run before use.
var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken issues a session token for a user that expires after JWT_EXP.
func GenerateToken(userID, role string) (string, error) {
	now := time.Now()
	_, signed, err := TokenAuth.Encode(jwt.MapClaims{
		claimUserID: userID,
		claimRole:   role,
		"iat":       now.Unix(),
		"exp":       now.Add(config.AppConfig.JWTExp).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("sign token for %s: %w", userID, err)
	}
	return signed, nil
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	return stringClaim(claims, claimUserID, false)
}

// GetUserRoleFromClaims allows an empty role; the admin check treats it as a plain user.
func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	return stringClaim(claims, claimRole, true)
}

func stringClaim(claims jwt.MapClaims, name string, allowEmpty bool) (string, error) {
	v, ok := claims[name].(string)
	if !ok || (!allowEmpty && v == "") {
		return "", fmt.Errorf("token claim %q is missing or not a string", name)
	}
	return v, nil
}
