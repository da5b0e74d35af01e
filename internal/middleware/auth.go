package middleware

import (
	"context"
	"strings"

	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/pkg/errorx"
	"github.com/tonlotto/backend/pkg/jwt"
	"github.com/tonlotto/backend/pkg/router"
	"github.com/tonlotto/backend/pkg/xcontext"
)

// Authenticate verifies the bearer token and records its role in the
// context. Requests without a token pass through with an empty role.
func Authenticate(tokenEngine *jwt.Engine[model.AccessToken]) router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		header := xcontext.HTTPRequest(ctx).Header.Get("Authorization")
		if header == "" {
			return ctx, nil
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return ctx, errorx.New(errorx.Unauthenticated, "Invalid authorization header")
		}

		token, err := tokenEngine.Verify(parts[1])
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
			return ctx, errorx.New(errorx.Unauthenticated, "Invalid access token")
		}

		return xcontext.WithRequestRole(ctx, token.Role), nil
	}
}

// OnlyAdmin guards the operator surface.
func OnlyAdmin() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if xcontext.RequestRole(ctx) != model.RoleAdmin {
			return ctx, errorx.New(errorx.PermissionDenied, "Only admin can call this API")
		}

		return ctx, nil
	}
}
