package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

const FlashCookie = "flash"

// Flash categories understood by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

type flashBag struct {
	items []Flash
}

const flashKey contextKey = "megaqc-flashes"

// FlashStore keeps pending flashes in a cookie between requests.
type FlashStore struct {
	secure bool
}

func NewFlashStore(secure bool) *FlashStore {
	return &FlashStore{secure: secure}
}

// Middleware loads pending flashes from the cookie into the request context.
func (s *FlashStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bag := &flashBag{items: readFlashCookie(r)}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), flashKey, bag)))
	})
}

// Add queues a flash. It must be called before the response header is written.
func (s *FlashStore) Add(w http.ResponseWriter, r *http.Request, category, message string) {
	bag := bagFrom(r)
	bag.items = append(bag.items, Flash{Category: category, Message: message})
	s.write(w, bag.items)
}

// Peek returns the pending flashes without consuming them.
func (s *FlashStore) Peek(r *http.Request) []Flash {
	return append([]Flash(nil), bagFrom(r).items...)
}

// Pop returns and clears every pending flash.
func (s *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	bag := bagFrom(r)
	items := bag.items
	bag.items = nil
	if len(items) > 0 {
		s.write(w, nil)
	}
	return items
}

func (s *FlashStore) write(w http.ResponseWriter, items []Flash) {
	// Only the last flash cookie of a response must survive.
	h := w.Header()
	var kept []string
	for _, c := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(c, FlashCookie+"=") {
			kept = append(kept, c)
		}
	}
	h.Del("Set-Cookie")
	for _, c := range kept {
		h.Add("Set-Cookie", c)
	}

	cookie := &http.Cookie{
		Name:     FlashCookie,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if len(items) == 0 {
		cookie.MaxAge = -1
	} else {
		raw, _ := json.Marshal(items)
		cookie.Value = base64.RawURLEncoding.EncodeToString(raw)
	}
	http.SetCookie(w, cookie)
}

func bagFrom(r *http.Request) *flashBag {
	if bag, ok := r.Context().Value(flashKey).(*flashBag); ok {
		return bag
	}
	return &flashBag{items: readFlashCookie(r)}
}

func readFlashCookie(r *http.Request) []Flash {
	c, err := r.Cookie(FlashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var items []Flash
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
