package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response helpers shared by all handlers.
func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

func notFound(c echo.Context, msg string) error {
	return jsonError(c, http.StatusNotFound, msg)
}

func badRequest(c echo.Context, msg string) error {
	return jsonError(c, http.StatusBadRequest, msg)
}

func internalError(c echo.Context, msg string) error {
	return jsonError(c, http.StatusInternalServerError, msg)
}
