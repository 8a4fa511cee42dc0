package membership

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterHTTPRoutes mounts the controller handlers on app
func RegisterHTTPRoutes[T any](app router.Router[T], controller *HTTPController) {
	app.Post(controller.Routes.Login, controller.Login)
	app.Post(controller.Routes.Logout, controller.Logout)
	app.Get(controller.Routes.Current, controller.Current)
	app.Post(controller.Routes.Refresh, controller.Refresh)
}

type HTTPControllerRoutes struct {
	Login   string
	Logout  string
	Current string
	Refresh string
}

type HTTPController struct {
	Debug    bool
	Logger   Logger
	Provider CurrentUserProvider
	Routes   *HTTPControllerRoutes
}

type HTTPControllerOption func(*HTTPController) *HTTPController

// WithControllerLogger overrides the controller logger
func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerRoutes overrides the route paths
func WithControllerRoutes(routes *HTTPControllerRoutes) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// NewHTTPController creates the JSON login controller
func NewHTTPController(provider CurrentUserProvider, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger:   defLogger{},
		Provider: provider,
		Routes: &HTTPControllerRoutes{
			Login:   "/login",
			Logout:  "/logout",
			Current: "/me",
			Refresh: "/token/refresh",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Provider == nil {
		panic("Missing CurrentUserProvider in membership controller...")
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Remember bool   `form:"remember" json:"remember"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 200)),
	)
}

// Login authenticates the posted credential
func (h *HTTPController) Login(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := ctx.Bind(payload); err != nil {
		h.Logger.Error("login parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "failed to parse payload",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "invalid payload",
			"validation": err.Error(),
		})
	}

	if h.Debug {
		h.Logger.Debug("login request", "username", payload.Username, "remember", payload.Remember)
	}

	rc := RequestContextFrom(ctx)
	user, err := h.Provider.Login(ctx.Context(), rc, payload.Username, payload.Password, payload.Remember)
	if err != nil {
		return h.writeError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user":  user,
		"token": rc.Token(),
	})
}

// Logout ends the session and expires the token cookie
func (h *HTTPController) Logout(ctx router.Context) error {
	rc := RequestContextFrom(ctx)
	if err := h.Provider.Logout(ctx.Context(), rc); err != nil {
		return h.writeError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

// Current returns the current user or 401
func (h *HTTPController) Current(ctx router.Context) error {
	rc := RequestContextFrom(ctx)
	user := h.Provider.GetCurrent(rc)
	if user == nil {
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"error": "not authenticated",
		})
	}

	payload := map[string]any{"user": user}
	if p := rc.Principal(); p != nil {
		payload["roles"] = p.Roles()
	}

	return ctx.JSON(router.StatusOK, payload)
}

type tokenRefresher interface {
	RefreshToken(rc *RequestContext, expiry time.Duration) (string, error)
}

// Refresh reissues the token cookie for the current user
func (h *HTTPController) Refresh(ctx router.Context) error {
	refresher, ok := h.Provider.(tokenRefresher)
	if !ok {
		return ctx.JSON(errors.CodeNotFound, map[string]any{
			"error": "token refresh not supported",
		})
	}

	rc := RequestContextFrom(ctx)
	token, err := refresher.RefreshToken(rc, 0)
	if err != nil {
		return h.writeError(ctx, err)
	}

	if token == "" {
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"error": "not authenticated",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
	})
}

func (h *HTTPController) writeError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	h.Logger.Info(
		"membership controller error",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	return ctx.JSON(status, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

// RequestContextFrom returns the RequestContext attached by the
// identity middleware, or a session-less one built around ctx.
func RequestContextFrom(ctx router.Context) *RequestContext {
	if rc, ok := RequestFromContext(ctx.Context()); ok {
		return rc
	}
	return NewRequestContext(ctx)
}
