package auth

import (
	"errors"
	"time"

	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/golang-jwt/jwt/v5"
)

const audience = "chatrelay"

type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// Identity is the verified result of a token check: the opaque user id the
// rest of the system routes by, plus the display username.
type Identity struct {
	UserId   string
	Username string
}

type Authenticator struct {
	secret    []byte
	tokenTTL  time.Duration
	jwtParser *jwt.Parser
}

func NewAuthenticator(secret string, tokenTTL time.Duration) *Authenticator {
	jwtParser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithAudience(audience),
	)

	return &Authenticator{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		jwtParser: jwtParser,
	}
}

func (a *Authenticator) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("unexpected signing method"))
	}
	return a.secret, nil
}

// IssueToken signs a token for a freshly-authenticated user.
func (a *Authenticator) IssueToken(userId string, username string) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(a.secret)
}

// Verify checks the token signature and registered claims and returns the
// identity it carries.
func (a *Authenticator) Verify(tokenString string) (*Identity, error) {
	claims := Claims{}

	_, err := a.jwtParser.ParseWithClaims(tokenString, &claims, a.keyFunc)
	if err != nil {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid subject claim"))
	}

	return &Identity{
		UserId:   subject,
		Username: claims.Username,
	}, nil
}
