package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"recipeapp/internal/auth"
	"recipeapp/internal/model"
	"recipeapp/internal/view"
)

// SessionContextKey is where echo-jwt stores the verified session claims.
const SessionContextKey = "user"

const (
	flashSuccessCookie = "flash_success"
	flashErrorCookie   = "flash_error"
	flashFormCookie    = "flash_form"
	flashMaxAge        = 60
	maxFlashFormBytes  = 3000
)

// SessionClaims returns the claims of the current session, or nil when the request is anonymous.
func SessionClaims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(SessionContextKey).(*auth.Claims)
	return claims
}

// newPage builds the common page data: viewer identity, pending flash messages and the loading hint.
func newPage(c echo.Context, title string) *view.Page {
	page := &view.Page{
		Title:   title,
		Success: takeFlash(c, flashSuccessCookie),
		Error:   takeFlash(c, flashErrorCookie),
		Loading: c.QueryParam("loading") == "true",
	}
	if claims := SessionClaims(c); claims != nil {
		page.Username = claims.Username
		page.IsAdmin = claims.Role == model.RoleAdmin
	}
	return page
}

func setFlash(c echo.Context, name, message string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(message),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// takeFlash reads a flash message once and expires it.
func takeFlash(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	clearCookie(c, name)
	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}

func flashSuccess(c echo.Context, message string) { setFlash(c, flashSuccessCookie, message) }
func flashError(c echo.Context, message string)   { setFlash(c, flashErrorCookie, message) }

// flashForm carries submitted form values across a redirect. Forms too large for a cookie are dropped.
func flashForm(c echo.Context, form *view.RecipeForm) {
	data, err := json.Marshal(form)
	if err != nil {
		return
	}
	encoded := base64.RawURLEncoding.EncodeToString(data)
	if len(encoded) > maxFlashFormBytes {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     flashFormCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func takeFlashForm(c echo.Context) *view.RecipeForm {
	cookie, err := c.Cookie(flashFormCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	clearCookie(c, flashFormCookie)
	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var form view.RecipeForm
	if err := json.Unmarshal(data, &form); err != nil {
		return nil
	}
	return &form
}
