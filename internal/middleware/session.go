package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/Passbob/dopamine-travel-front/internal/observability"
)

const (
	defaultSessionCookie = "TRAVEL_WEB_SESSION"
	defaultSessionMaxAge = 30 * 24 * time.Hour
)

// SessionData is the payload persisted in the signed session cookie. Selection
// state lives server-side; the cookie only points at it.
type SessionData struct {
	ID         string    `json:"id"`
	WorkflowID string    `json:"wf,omitempty"`
	Locale     string    `json:"locale,omitempty"`
	CSRFToken  string    `json:"csrf,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool
	now   func() time.Time
}

// SessionConfig controls cookie encoding.
type SessionConfig struct {
	CookieName string
	HashKey    []byte
	BlockKey   []byte
	Secure     bool
	MaxAge     time.Duration
	Now        func() time.Time
}

// Sessions encodes session cookies with gorilla/securecookie.
type Sessions struct {
	cfg       SessionConfig
	codec     *securecookie.SecureCookie
	now       func() time.Time
	ephemeral bool
}

// NewSessions builds the cookie codec. Without a hash key a process-ephemeral key is generated,
// which invalidates every session on restart.
func NewSessions(cfg SessionConfig) (*Sessions, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = defaultSessionCookie
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultSessionMaxAge
	}
	ephemeral := false
	if len(cfg.HashKey) == 0 {
		cfg.HashKey = securecookie.GenerateRandomKey(32)
		if cfg.HashKey == nil {
			return nil, errors.New("session: generate signing key")
		}
		ephemeral = true
	}
	switch len(cfg.BlockKey) {
	case 0:
		// securecookie treats any non-nil key as an AES key
		cfg.BlockKey = nil
	case 16, 24, 32:
	default:
		return nil, errors.New("session: block key must be 16, 24 or 32 bytes")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.MaxAge.Seconds()))
	return &Sessions{cfg: cfg, codec: codec, now: now, ephemeral: ephemeral}, nil
}

// Ephemeral reports whether the signing key was generated for this process only.
func (s *Sessions) Ephemeral() bool { return s.ephemeral }

// Secure reports whether cookies carry the Secure attribute.
func (s *Sessions) Secure() bool { return s.cfg.Secure }

// Middleware loads or initializes the session, stores it in the request context and
// persists it just before the response header is written.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := s.read(r)
		if sd.ID == "" {
			now := s.now().UTC()
			sd = &SessionData{
				ID:        randID(),
				CreatedAt: now,
				UpdatedAt: now,
				CSRFToken: newCSRFToken(),
				dirty:     true,
			}
		}
		sd.now = s.now
		ctx := context.WithValue(r.Context(), ctxKeySession, sd)

		rw := NewResponseRecorder(w)
		persist := func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				if err := s.write(w, sd); err != nil {
					observability.FromContext(r.Context()).Error("session: encode cookie", zap.Error(err))
				}
			}
		}
		rw.SetBeforeWrite(persist)
		next.ServeHTTP(rw, r.WithContext(ctx))
		// nothing written (e.g. HEAD or empty 200): persist now
		if !rw.Wrote() {
			persist(w)
		}
	})
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(ctxKeySession); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{}
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() {
	s.dirty = true
	if s.now != nil {
		s.UpdatedAt = s.now().UTC()
	} else {
		s.UpdatedAt = time.Now().UTC()
	}
}

// SetWorkflow points the session at a workflow. An empty id clears it.
func (s *SessionData) SetWorkflow(id string) {
	if s.WorkflowID == id {
		return
	}
	s.WorkflowID = id
	s.MarkDirty()
}

func (s *Sessions) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := s.codec.Decode(s.cfg.CookieName, c.Value, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func (s *Sessions) write(w http.ResponseWriter, sd *SessionData) error {
	encoded, err := s.codec.Encode(s.cfg.CookieName, sd)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(s.cfg.MaxAge),
		MaxAge:   int(s.cfg.MaxAge.Seconds()),
	})
	return nil
}

// helpers
func randID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
