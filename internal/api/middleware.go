package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/jdav-kompass/kompass/internal/auth"
	"github.com/jdav-kompass/kompass/internal/rules"
	"github.com/jdav-kompass/kompass/internal/service"
	"github.com/jdav-kompass/kompass/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const loggerKey = "logger"

func ZapLoggerMiddleware(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			reqLogger := l.With(
				zap.String("request_id", requestID),
			)

			c.Set(loggerKey, reqLogger)

			ctx := logger.WithLogger(req.Context(), reqLogger)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			latency := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
				zap.Int64("bytes_in", req.ContentLength),
				zap.Int64("bytes_out", res.Size),
			}

			if err != nil {
				fields = append(fields, zap.Error(err))
				reqLogger.Error("request failed", fields...)
			} else {
				reqLogger.Info("request completed", fields...)
			}

			return err
		}
	}
}

func GetLoggerFromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

type actorKey struct{}

func withActor(ctx context.Context, actor rules.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the authenticated caller; the zero Actor when the
// request was not authenticated.
func ActorFromContext(ctx context.Context) rules.Actor {
	actor, _ := ctx.Value(actorKey{}).(rules.Actor)
	return actor
}

// AuthMiddleware accepts bearer tokens of the allowed types and stores the
// caller in the request context.
func AuthMiddleware(tokens *auth.Tokens, allowed ...auth.TokenType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := GetLoggerFromContext(c)

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{
					Error: service.NewError(service.ErrorCodeUnauthorized, "missing bearer token"),
				})
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				l.Warn("rejected token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, errorResponse{
					Error: service.NewError(service.ErrorCodeUnauthorized, "invalid token"),
				})
			}

			if !slices.Contains(allowed, claims.Type) {
				l.Warn("token type not allowed", zap.String("type", string(claims.Type)), zap.String("path", c.Path()))
				return c.JSON(http.StatusForbidden, errorResponse{
					Error: service.NewError(service.ErrorCodeForbidden, "insufficient permissions"),
				})
			}

			actor := rules.Actor{
				MemberID: claims.MemberID(),
				Admin:    claims.Type == auth.TokenTypeAdmin,
			}
			c.SetRequest(c.Request().WithContext(withActor(c.Request().Context(), actor)))

			return next(c)
		}
	}
}
