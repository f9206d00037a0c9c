package router

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"recipeapp/internal/config"
	"recipeapp/internal/handler"
	"recipeapp/internal/logger"
	"recipeapp/internal/metrics"
	"recipeapp/internal/model"
	"recipeapp/internal/service"
)

// Handlers groups the HTTP handlers the router wires.
type Handlers struct {
	Recipe  *handler.RecipeHandler
	API     *handler.APIHandler
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Uploads *handler.UploadHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log logger.Logger,
	m *metrics.Metrics,
	authService service.AuthService,
	h Handlers,
) {
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.Upload.MaxRequestSize, 10)))
	e.Use(m.Middleware())
	e.Use(Session(cfg.SessionCookie, authService))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", m.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Recipe pages
	e.GET("/", h.Recipe.Index)
	e.GET("/home", h.Recipe.Home)
	e.GET("/recipes/favorites", h.Recipe.Favorites)
	e.GET("/recipes/category/:category", h.Recipe.Category)
	e.GET("/recipes/new", h.Recipe.NewForm)
	e.POST("/recipes/new", h.Recipe.Create)
	e.GET("/recipes/edit/:id", h.Recipe.EditForm)
	e.POST("/recipes/update", h.Recipe.Update)
	e.POST("/recipes/:id/delete", h.Recipe.DeleteAndRedirect)
	e.DELETE("/recipes/:id/delete", h.Recipe.Delete)
	e.POST("/recipes/:id/toggleFavorite", h.Recipe.ToggleFavorite)
	e.GET("/uploads/*", h.Uploads.Serve)

	api := e.Group("/api")
	api.GET("/stats", h.API.Stats)
	api.GET("/export", h.API.Export)
	api.GET("/categories", h.API.Categories)
	api.GET("/search", h.API.Search)
	api.POST("/import", h.API.Import)
	api.POST("/admin/reset-data", h.API.ResetData)

	// Account routes
	e.GET("/login", h.Auth.LoginForm)
	e.POST("/login", h.Auth.Login)
	e.POST("/logout", h.Auth.Logout)
	e.GET("/register", h.Auth.RegisterForm)
	e.POST("/register", h.Auth.Register)

	admin := e.Group("/admin", RequireRole(model.RoleAdmin))
	admin.GET("/users", h.User.ListUsers)
}

// Session attaches the verified claims of the session cookie, if any, to the context.
// Anonymous requests and invalid or revoked tokens pass through without claims.
func Session(cookieName string, authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + cookieName,
		ContextKey:  handler.SessionContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Verify(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

var roleRank = map[string]int{
	model.RoleUser:  1,
	model.RoleAdmin: 2,
}

// RequireRole redirects anonymous requests to the login page and rejects sessions below the minimum role.
func RequireRole(minimum string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := handler.SessionClaims(c)
			if claims == nil {
				return c.Redirect(http.StatusFound, "/login")
			}
			if roleRank[claims.Role] < roleRank[minimum] {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := logger.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				log.Error("request", fields)
				return nil
			}
			log.Info("request", fields)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
