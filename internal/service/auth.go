package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/deroyal/feedback-portal/backend/internal/types"
)

// ErrDomainNotAllowed is returned when a login code is requested for an
// email outside the configured company domain.
var ErrDomainNotAllowed = errors.New("email domain not allowed")

const sessionTokenTTL = 24 * time.Hour

type AuthService struct {
	codes          *CodeStore
	jwtSecret      string
	adminDomain    string
	passphraseHash string
}

func NewAuthService(codes *CodeStore, jwtSecret, adminDomain, passphraseHash string) *AuthService {
	return &AuthService{
		codes:          codes,
		jwtSecret:      jwtSecret,
		adminDomain:    strings.ToLower(strings.TrimPrefix(adminDomain, "@")),
		passphraseHash: passphraseHash,
	}
}

// VerifyPassphrase checks the shared intake passphrase against its stored
// bcrypt hash. Wrong passphrases collapse to false, not an error.
func (s *AuthService) VerifyPassphrase(passphrase string) bool {
	if s.passphraseHash == "" || passphrase == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.passphraseHash), []byte(passphrase)) == nil
}

// AllowedEmail reports whether the email belongs to the admin domain.
func (s *AuthService) AllowedEmail(email string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+s.adminDomain)
}

// IssueCode generates a one-time login code for the admin email. The caller
// is responsible for delivering it out-of-band; the code never appears in an
// HTTP response.
func (s *AuthService) IssueCode(email string) (string, error) {
	if !s.AllowedEmail(email) {
		return "", ErrDomainNotAllowed
	}
	return s.codes.Issue(email)
}

// VerifyCode checks a submitted login code. All failure modes (unknown email,
// expired, wrong code) collapse to false.
func (s *AuthService) VerifyCode(email, code string) bool {
	return s.codes.Verify(email, code)
}

// IssueSessionToken mints the bearer credential handed out after a
// successful code verification.
func (s *AuthService) IssueSessionToken(email string) (string, error) {
	claims := &types.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   normalizeEmail(email),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTokenTTL)),
		},
		Email: normalizeEmail(email),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateSessionToken parses and verifies a bearer session token.
func (s *AuthService) ValidateSessionToken(tokenString string) (*types.SessionClaims, error) {
	claims := &types.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Email == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// IssueGateToken mints the short-lived token handed out after the intake
// passphrase check; it marks a browser session as allowed to submit.
func (s *AuthService) IssueGateToken() (string, error) {
	claims := &types.GateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTokenTTL)),
		},
		Scope: "submit",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
