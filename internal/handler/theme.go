package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

// Theme cookie values. The cookie stays readable from script so theme.js can
// apply it before first paint.
const (
	themeCookie    = "theme"
	themeLight     = "desk-light"
	themeDark      = "desk-dark"
	themeCookieAge = 365 * 24 * time.Hour
)

func validTheme(v string) bool {
	return v == themeLight || v == themeDark
}

// themeFromRequest returns the stored theme, or "" so the layout leaves
// data-theme unset.
func themeFromRequest(r *http.Request) string {
	if c, err := r.Cookie(themeCookie); err == nil && validTheme(c.Value) {
		return c.Value
	}
	return ""
}

// SetTheme serves POST /theme for signed-in and anonymous visitors alike. The
// themeChanged trigger lets app.js swap data-theme in place.
func SetTheme(w http.ResponseWriter, r *http.Request) {
	theme := r.PostFormValue("theme")
	if !validTheme(theme) {
		http.Error(w, "invalid theme", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    theme,
		Path:     "/",
		MaxAge:   int(themeCookieAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	trigger, err := json.Marshal(map[string]map[string]string{"themeChanged": {"theme": theme}})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("HX-Trigger", string(trigger))
	w.WriteHeader(http.StatusNoContent)
}
