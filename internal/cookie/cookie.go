package cookie

import (
	"net/http"
	"time"

	"github.com/homeshine/portal-front/internal/envutil"
	"github.com/homeshine/portal-front/internal/log"
)

// AdminCookie carries the signed admin session token
const AdminCookie = "portal_admin"

// SetAdmin sets the admin session cookie with appropriate security settings
func SetAdmin(w http.ResponseWriter, value string, maxAge time.Duration) {
	secure := !envutil.IsDev()
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})

	log.LogDebugWithFields("cookie", "Admin cookie set", map[string]any{
		"maxAge": maxAge.String(),
		"secure": secure,
	})
}

// ClearAdmin removes the admin session cookie
func ClearAdmin(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   AdminCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	log.LogDebugWithFields("cookie", "Admin cookie cleared", nil)
}

// GetAdmin retrieves the admin cookie value from the request
func GetAdmin(r *http.Request) (string, error) {
	c, err := r.Cookie(AdminCookie)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}
