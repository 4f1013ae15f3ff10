package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secretKey []byte

// ErrNoToken is returned when a request carries no bearer token or cookie.
var ErrNoToken = errors.New("no token found")

func SetSecret(key string) {
	secretKey = []byte(key)
}

// GenerateJWT signs an HS256 token for an operator of the admin API.
func GenerateJWT(userID, email, role string, expiry time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("jwt secret not set")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(expiry).Unix(),
	})
	return token.SignedString(secretKey)
}

func ValidateJWT(tokenString string) (jwt.MapClaims, error) {
	if len(secretKey) == 0 {
		return nil, fmt.Errorf("jwt secret not set")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type Claims struct {
	UserID string
	Email  string
	Role   string
}

// ExtractClaims reads the bearer token from the Authorization header, falling
// back to the accessToken cookie.
func ExtractClaims(r *http.Request) (*Claims, error) {
	tokenString := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		tokenString = strings.TrimPrefix(h, "Bearer ")
	} else if cookie, err := r.Cookie("accessToken"); err == nil {
		tokenString = cookie.Value
	}
	if tokenString == "" {
		return nil, ErrNoToken
	}

	mapClaims, err := ValidateJWT(tokenString)
	if err != nil {
		return nil, err
	}

	userID, _ := mapClaims["sub"].(string)
	email, _ := mapClaims["email"].(string)
	role, _ := mapClaims["role"].(string)
	return &Claims{UserID: userID, Email: email, Role: role}, nil
}
