package rest

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"mentorweb/backend/internal/calendar"
	"mentorweb/backend/internal/domain"
)

const (
	googleTokenHeader = "X-Google-Token"
	oauthStateCookie  = "oauth_state"
	oauthStateMaxAge  = 600
)

// GET /api/calendar/auth
func (s *Server) googleAuth(c *gin.Context) {
	if s.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar not configured"})
		return
	}
	state, err := randomToken(16)
	if err != nil {
		s.writeError(c, err)
		return
	}
	// Lax so the cookie comes back on the provider's top-level redirect.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": s.Google.AuthURL(state),
		"state":    state,
	})
}

// GET /oauth2callback
// The state must match the cookie set by /api/calendar/auth.
func (s *Server) googleCallback(c *gin.Context) {
	if s.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar not configured"})
		return
	}
	state := c.Query("state")
	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || expected == "" || state == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		s.log.Warn("oauth state mismatch")
		badRequest(c, "invalid oauth state")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", c.Request.TLS != nil, true)

	code := c.Query("code")
	if code == "" {
		badRequest(c, "authorization code required")
		return
	}
	tok, err := s.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		s.log.Warn("oauth code exchange failed", "err", err)
		badRequest(c, "failed to exchange code for token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state": state,
		"token": tok,
	})
}

// GET /api/calendar/events?from=RFC3339&to=RFC3339
// The Google token travels in X-Google-Token, either as the token JSON
// returned by /oauth2callback or as a bare access token.
func (s *Server) googleEvents(c *gin.Context) {
	if s.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar not configured"})
		return
	}
	w, ok := window(c)
	if !ok {
		return
	}
	tok, ok := googleToken(c.GetHeader(googleTokenHeader))
	if !ok {
		s.writeError(c, calendar.ErrUnauthenticated)
		return
	}

	evs, err := s.Events.List(c.Request.Context(), s.Google.ForToken(c.Request.Context(), tok), w)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if evs == nil {
		evs = []domain.CalendarEvent{}
	}
	c.JSON(http.StatusOK, evs)
}

// GET /api/calendar/feeds?from=RFC3339&to=RFC3339
func (s *Server) feedEvents(c *gin.Context) {
	w, ok := window(c)
	if !ok {
		return
	}
	evs := s.Events.ListFeeds(c.Request.Context(), s.Feeds, w)
	if evs == nil {
		evs = []domain.CalendarEvent{}
	}
	c.JSON(http.StatusOK, evs)
}

func googleToken(header string) (*oauth2.Token, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, false
	}
	if !strings.HasPrefix(header, "{") {
		return &oauth2.Token{AccessToken: header, TokenType: "Bearer"}, true
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(header), &tok); err != nil || tok.AccessToken == "" {
		return nil, false
	}
	return &tok, true
}

// window reads optional from/to bounds. A missing bound leaves that side
// open.
func window(c *gin.Context) (calendar.Window, bool) {
	var w calendar.Window
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "from must be an RFC 3339 timestamp")
			return calendar.Window{}, false
		}
		w.Start = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "to must be an RFC 3339 timestamp")
			return calendar.Window{}, false
		}
		w.End = t
	}
	if !w.Start.IsZero() && !w.End.IsZero() && !w.Start.Before(w.End) {
		badRequest(c, "from must be before to")
		return calendar.Window{}, false
	}
	return w, true
}
