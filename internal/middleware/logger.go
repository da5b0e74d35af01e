package middleware

import (
	"context"

	"github.com/tonlotto/backend/pkg/router"
	"github.com/tonlotto/backend/pkg/xcontext"
)

func Logger() router.CloserFunc {
	return func(ctx context.Context) {
		req := xcontext.HTTPRequest(ctx)
		xcontext.Logger(ctx).Infof("%s | %s", req.Method, req.URL.Path)
	}
}
