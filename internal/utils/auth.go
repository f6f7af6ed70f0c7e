package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/indureport/indureportgo/internal/models"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateTokens generates Access and Refresh tokens
func GenerateTokens(user *models.User, secret string) (string, string, error) {
	// Access Token Claims
	claims := jwt.MapClaims{
		"id":       user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"company":  user.Company,
		"exp":      time.Now().Add(time.Hour * 24 * 7).Unix(), // 7 days, mobile clients sync rarely
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}

	// Refresh Token Claims
	refreshClaims := jwt.MapClaims{
		"id":  user.ID,
		"exp": time.Now().Add(time.Hour * 24 * 90).Unix(), // 90 days
	}
	refreshTokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshToken, err := refreshTokenObj.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ValidateToken parses and validates a token
func ValidateToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// PrincipalFromClaims builds the authenticated identity out of verified
// token claims
func PrincipalFromClaims(claims jwt.MapClaims) models.Principal {
	p := models.Principal{}
	if v, ok := claims["id"].(string); ok {
		p.UserID = v
	}
	if v, ok := claims["username"].(string); ok {
		p.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		p.Role = models.Role(v)
	}
	if v, ok := claims["company"].(string); ok {
		p.Company = v
	}
	return p
}
