// Package flash carries one-shot messages for the page surface across a
// redirect in a short-lived cookie.
package flash

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const cookieName = "flash"

// Add queues msg for the next rendered page.
func Add(c echo.Context, msg string) {
	msgs := append(pending(c), msg)
	c.Set(cookieName, msgs)
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    url.QueryEscape(strings.Join(msgs, "\n")),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the queued messages and clears the cookie.
func Pop(c echo.Context) []string {
	msgs := pending(c)
	if len(msgs) == 0 {
		return nil
	}
	c.Set(cookieName, []string(nil))
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return msgs
}

// pending prefers messages added during this request over the incoming cookie.
func pending(c echo.Context) []string {
	if v, ok := c.Get(cookieName).([]string); ok {
		return v
	}
	ck, err := c.Cookie(cookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	raw, err := url.QueryUnescape(ck.Value)
	if err != nil || raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}
