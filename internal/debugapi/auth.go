package debugapi

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// defaultJWTSecret is used only when LSMIDX_DEBUG_JWT_SECRET is unset.
	// SECURITY WARNING: set the environment variable in any deployment that
	// isn't a throwaway local debug session.
	defaultJWTSecret = "lsmidx-debug-secret-change-in-production" // #nosec G101
	// tokenExpiration bounds how long an issued JWT stays valid.
	tokenExpiration = 1 * time.Hour
	// operatorTokenEnv names the bootstrap credential checked by /login.
	operatorTokenEnv = "LSMIDX_DEBUG_TOKEN"
)

// authManager issues and validates the bearer tokens protecting the debug
// and stats routes.
type authManager struct {
	jwtSecret     []byte
	operatorToken string
}

// claims is the JWT payload minted for a successful /login.
type claims struct {
	jwt.RegisteredClaims
}

func newAuthManager() *authManager {
	secret := os.Getenv("LSMIDX_DEBUG_JWT_SECRET")
	if secret == "" {
		secret = defaultJWTSecret
	}
	return &authManager{
		jwtSecret:     []byte(secret),
		operatorToken: os.Getenv(operatorTokenEnv),
	}
}

func (am *authManager) generateJWT() (string, time.Time, error) {
	expiresAt := time.Now().Add(tokenExpiration)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "lsmidx-debugd",
		},
	})
	signed, err := token.SignedString(am.jwtSecret)
	return signed, expiresAt, err
}

func (am *authManager) validateJWT(tokenString string) (*claims, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return am.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return c, nil
}

// authMiddleware requires a valid Bearer JWT for every route it guards.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			s.errorResponse(c, http.StatusUnauthorized, "MISSING_AUTH", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if _, err := s.auth.validateJWT(tokenString); err != nil {
			s.errorResponse(c, http.StatusUnauthorized, "INVALID_TOKEN", err.Error())
			c.Abort()
			return
		}

		c.Next()
	}
}

// login exchanges the operator bootstrap token (LSMIDX_DEBUG_TOKEN) for a
// short-lived JWT that authorizes the debug and stats routes.
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if s.auth.operatorToken == "" || req.Token != s.auth.operatorToken {
		s.errorResponse(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid operator token")
		return
	}

	token, expiresAt, err := s.auth.generateJWT()
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", err.Error())
		return
	}

	s.successResponse(c, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, 0)
}
