package identity

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-membership"
	"github.com/goliatone/go-router"
)

var (
	ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
				WithTextCode("UNAUTHENTICATED").
				WithCode(errors.CodeUnauthorized)

	ErrForbidden = errors.New("insufficient role", errors.CategoryAuthz).
			WithTextCode("FORBIDDEN").
			WithCode(errors.CodeForbidden)
)

type GuardConfig struct {
	// Roles lists accepted roles, any one of them grants access. Empty
	// means any authenticated user.
	Roles        []string
	ErrorHandler router.ErrorHandler
}

// RequireUser rejects requests without a resolved principal. It must
// run after New.
func RequireUser(config ...GuardConfig) router.MiddlewareFunc {
	var cfg GuardConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if errors.Is(err, ErrForbidden) {
				return c.Status(router.StatusForbidden).SendString("Forbidden")
			}
			return c.Status(router.StatusUnauthorized).SendString("Unauthorized")
		}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if err := Authorize(ctx.Context(), cfg.Roles...); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}
			return ctx.Next()
		}
	}
}

// Authorize checks the principal published in ctx against roles
func Authorize(ctx context.Context, roles ...string) error {
	p, ok := membership.PrincipalFromContext(ctx)
	if !ok || !p.IsAuthenticated() {
		return ErrUnauthenticated
	}

	if len(roles) == 0 {
		return nil
	}

	for _, role := range roles {
		if p.IsInRole(role) {
			return nil
		}
	}

	return ErrForbidden
}

// CurrentUser returns the user resolved for ctx
func CurrentUser(ctx context.Context) *membership.User {
	if p, ok := membership.PrincipalFromContext(ctx); ok {
		return p.User()
	}
	return nil
}
