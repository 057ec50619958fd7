package middleware

import (
	"context"
	"errors"

	"github.com/Dosada05/notes-app/services"
)

type contextKey string

const userContextKey contextKey = "user"

var ErrNoUserInContext = errors.New("user claims not found in context")

func withClaims(ctx context.Context, claims *services.Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// ClaimsFromContext возвращает claims access токена, установленные Authenticate.
func ClaimsFromContext(ctx context.Context) (*services.Claims, error) {
	claims, ok := ctx.Value(userContextKey).(*services.Claims)
	if !ok || claims == nil {
		return nil, ErrNoUserInContext
	}
	return claims, nil
}

func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
