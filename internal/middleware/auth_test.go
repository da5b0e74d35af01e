package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tonlotto/backend/internal/middleware"
	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/pkg/errorx"
	"github.com/tonlotto/backend/pkg/jwt"
	"github.com/tonlotto/backend/pkg/router"
	"github.com/tonlotto/backend/pkg/testutil"
)

type emptyRequest struct{}
type emptyResponse struct{}

func TestAuthenticate_OnlyAdmin(t *testing.T) {
	ctx := testutil.MockContext()
	engine := jwt.NewEngine[model.AccessToken]("secret", time.Minute)

	r := router.New(ctx)
	r.Before(middleware.Authenticate(engine))

	adminRouter := r.Branch()
	adminRouter.Before(middleware.OnlyAdmin())
	router.GET(adminRouter, "/admin",
		func(ctx context.Context, req *emptyRequest) (*emptyResponse, error) {
			return &emptyResponse{}, nil
		})

	server := httptest.NewServer(r.Handler())
	defer server.Close()

	call := func(authorization string) int64 {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/admin", nil)
		require.NoError(t, err)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body struct {
			Code int64 `json:"code"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body.Code
	}

	// No token.
	require.Equal(t, int64(errorx.PermissionDenied), call(""))

	// Garbage token.
	require.Equal(t, int64(errorx.Unauthenticated), call("Bearer garbage"))

	// Non-admin token.
	token, err := engine.Generate("user", model.AccessToken{ID: "user", Role: "player"})
	require.NoError(t, err)
	require.Equal(t, int64(errorx.PermissionDenied), call("Bearer "+token))

	// Admin token.
	token, err = engine.Generate("op", model.AccessToken{ID: "op", Role: model.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, int64(0), call("Bearer "+token))
}
