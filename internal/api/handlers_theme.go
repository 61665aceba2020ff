// handlers_theme.go - Display theme handlers
package api

import (
	"net/http"

	"github.com/cerebroscan/backend/internal/presentation"
	"github.com/labstack/echo/v4"
)

// ThemeHandlerImpl implements the ThemeHandler interface
type ThemeHandlerImpl struct {
	theme *presentation.Theme
}

// NewThemeHandler creates a new theme handler
func NewThemeHandler(theme *presentation.Theme) ThemeHandler {
	return &ThemeHandlerImpl{theme: theme}
}

type themeBody struct {
	Dark bool   `json:"dark"`
	Name string `json:"name"`
}

func (h *ThemeHandlerImpl) current() themeBody {
	return themeBody{Dark: h.theme.Dark(), Name: h.theme.Name()}
}

// HandleGetTheme returns the current theme.
func (h *ThemeHandlerImpl) HandleGetTheme(c echo.Context) error {
	return c.JSON(http.StatusOK, h.current())
}

// HandleSetTheme sets the theme from {"dark": bool}.
func (h *ThemeHandlerImpl) HandleSetTheme(c echo.Context) error {
	var req struct {
		Dark *bool `json:"dark"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Dark == nil {
		return NewValidationError("dark")
	}
	h.theme.Set(*req.Dark)
	return c.JSON(http.StatusOK, h.current())
}

// HandleToggleTheme flips between dark and light.
func (h *ThemeHandlerImpl) HandleToggleTheme(c echo.Context) error {
	h.theme.Toggle()
	return c.JSON(http.StatusOK, h.current())
}
