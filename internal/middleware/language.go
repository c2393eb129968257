package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLanguage = "en"

	languageKey = "lang"
)

// Language picks the first tag of Accept-Language for localized dish names.
func Language() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(languageKey, parseLanguage(c.Request().Header.Get("Accept-Language")))
			return next(c)
		}
	}
}

func LanguageFrom(c echo.Context) string {
	if lang, ok := c.Get(languageKey).(string); ok && lang != "" {
		return lang
	}
	return DefaultLanguage
}

func parseLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(first, ";")
	tag = strings.TrimSpace(tag)
	if tag == "" || tag == "*" {
		return DefaultLanguage
	}
	return tag
}
