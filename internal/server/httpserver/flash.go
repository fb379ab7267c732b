package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/partsinventory/internal/common"
)

const (
	flashSuccess = "success"
	flashError   = "error"
)

// flash is a one-shot message carried to the next rendered page.
type flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (h *Handler) setFlash(w http.ResponseWriter, kind, message string) {
	b, err := json.Marshal(flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash, if any, and clears it.
func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) (flash, bool) {
	c, err := r.Cookie(common.FlashCookieName)
	if err != nil || c.Value == "" {
		return flash{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return flash{}, false
	}
	var f flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return flash{}, false
	}
	return f, true
}
