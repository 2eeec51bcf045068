package handler

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/fernhill/fieldtrack/internal/domain"
)

const contextKeyCaller = "caller"

// RequestLogger logs each HTTP request with structured fields.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			slog.Info("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)

			return err
		}
	}
}

// JWTAuth validates the Bearer token and injects the caller identity into
// echo context. Tokens are issued by the external identity system; this
// module only verifies them and reads the subject and role claims.
func JWTAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return domain.ErrUnauthorized
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return domain.ErrUnauthorized
			}

			caller, err := parseCaller(parts[1], secret)
			if err != nil {
				return domain.ErrUnauthorized
			}

			c.Set(contextKeyCaller, caller)
			return next(c)
		}
	}
}

func parseCaller(tokenString string, secret []byte) (domain.Caller, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return domain.Caller{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.Caller{}, domain.ErrUnauthorized
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return domain.Caller{}, domain.ErrUnauthorized
	}

	role, _ := claims["role"].(string)
	switch domain.Role(role) {
	case domain.RoleAdmin, domain.RoleStaff:
	default:
		return domain.Caller{}, domain.ErrUnauthorized
	}

	return domain.Caller{ID: int64(sub), Role: domain.Role(role)}, nil
}

// GetCaller extracts the authenticated caller from echo context.
func GetCaller(c echo.Context) (domain.Caller, bool) {
	caller, ok := c.Get(contextKeyCaller).(domain.Caller)
	return caller, ok
}
