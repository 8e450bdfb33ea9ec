package auth

import (
	"errors"
	"net/mail"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskboard-api/utils"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthService issues and validates the JWT a commenter carries. The board
// has no registration flow; an email is identity enough, the perimeter is
// trusted like the original deployment's.
type AuthService struct {
	secret []byte
	expiry time.Duration
}

func NewAuthService() *AuthService {
	hours, err := strconv.Atoi(utils.LoadDotEnvOr("TOKEN_EXPIRY", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return &AuthService{
		secret: []byte(utils.LoadDotEnv("JWT_SECRET")),
		expiry: time.Duration(hours) * time.Hour,
	}
}

// Login validates the email shape and returns a signed token. The claims
// ID doubles as the author id stamped onto comments.
func (a *AuthService) Login(email string) (string, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errors.New("invalid email address")
	}

	claims := &jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken parses a bearer token and returns its claims.
func (a *AuthService) ValidateToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsedToken, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !parsedToken.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}
