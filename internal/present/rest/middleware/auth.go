package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/phlask/resource-registry/internal/domain"
)

var tracer = otel.Tracer("auth")

// IdentifyActor lifts the caller's identity out of the authorization header
// into the request context. The identity is an opaque token minted by the
// identity provider in front of this service; no credential is checked here.
// Requests without one proceed anonymously and are rejected at the mutating
// handlers, which require an actor for provenance.
func IdentifyActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.IdentifyActor")
		defer span.End()

		authHeader := c.Request().Header.Get(domain.ActorHeader)
		if authHeader != "" {
			actor := authHeader
			if split := strings.Split(authHeader, " "); len(split) == 2 && split[0] == "Bearer" {
				actor = split[1]
			}
			ctx = context.WithValue(ctx, domain.ActorCtxKey, actor)
			span.SetAttributes(attribute.String("Actor", actor))
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
