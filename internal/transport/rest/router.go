// Package rest exposes the subject, editing and calendar services over a
// JSON HTTP API built on gin.
package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"mentorweb/backend/internal/calendar"
	"mentorweb/backend/internal/domain"
	"mentorweb/backend/internal/service/editing"
	"mentorweb/backend/internal/service/events"
	"mentorweb/backend/internal/service/schedules"
)

type SubjectService interface {
	ListSubjects(ctx context.Context, ownerID string) ([]domain.Subject, error)
	GetSubject(ctx context.Context, ownerID string, id int64) (domain.Subject, error)
	CreateSubject(ctx context.Context, in schedules.CreateSubjectInput) (domain.Subject, error)
	SaveDetails(ctx context.Context, ownerID string, id int64, fields domain.SubjectFields) (domain.Subject, error)
	LoadTimeBlocks(ctx context.Context, ownerID string, id int64) ([]domain.TimeInterval, error)
	SaveTimeBlocks(ctx context.Context, ownerID string, id int64, blocks []domain.TimeInterval) error
	Occurrences(ctx context.Context, ownerID string, id int64, windowStart, windowEnd time.Time) ([]domain.Occurrence, error)
}

type EditingService interface {
	Open(ownerID string) (*editing.Session, error)
	Get(ownerID, sessionID string) (*editing.Session, error)
	Close(ownerID, sessionID string) error
	SelectSubject(ctx context.Context, ownerID, sessionID string, subjectID int64) (editing.State, error)
	Save(ctx context.Context, ownerID, sessionID string) (editing.State, error)
	Discard(ownerID, sessionID string) (editing.State, error)
}

type EventsService interface {
	List(ctx context.Context, p calendar.Provider, w calendar.Window) ([]domain.CalendarEvent, error)
	ListFeeds(ctx context.Context, feeds []events.Feed, w calendar.Window) []domain.CalendarEvent
}

// GoogleAuth is the OAuth2 side of the Google Calendar integration.
type GoogleAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	ForToken(ctx context.Context, tok *oauth2.Token) calendar.Provider
}

// Server holds the services behind the API. Google may be nil when the
// OAuth2 client is not configured.
type Server struct {
	Subjects        SubjectService
	Editing         EditingService
	Events          EventsService
	Google          GoogleAuth
	Feeds           []events.Feed
	UnauthorizedURL string

	log *slog.Logger
}

type Options struct {
	Auth           AuthConfig
	CSRFCookie     string
	RequestTimeout time.Duration
}

func NewRouter(s *Server, log *slog.Logger, opts Options) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}
	s.log = log.With(slog.String("component", "http"))
	if opts.CSRFCookie == "" {
		opts.CSRFCookie = defaultCSRFCookie
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), requestTimeout(opts.RequestTimeout))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/oauth2callback", s.googleCallback)

	api := r.Group("/api")
	api.GET("/csrf", issueCSRF(opts.CSRFCookie))
	api.Use(authenticate(opts.Auth), checkCSRF(opts.CSRFCookie))
	{
		subjects := api.Group("/subjects")
		subjects.GET("", s.listSubjects)
		subjects.POST("", s.createSubject)
		subjects.GET("/:id", s.getSubject)
		subjects.POST("/:id/details", s.saveDetails)
		subjects.GET("/:id/times", s.loadTimes)
		subjects.POST("/:id/times", s.saveTimes)
		subjects.GET("/:id/occurrences", s.occurrences)

		sessions := api.Group("/sessions")
		sessions.POST("", s.openSession)
		sessions.GET("/:sid", s.sessionState)
		sessions.DELETE("/:sid", s.closeSession)
		sessions.POST("/:sid/subject", s.selectSubject)
		sessions.POST("/:sid/fields", s.editField)
		sessions.POST("/:sid/times", s.editTimes)
		sessions.POST("/:sid/save", s.saveSession)
		sessions.POST("/:sid/discard", s.discardSession)

		cal := api.Group("/calendar")
		cal.GET("/auth", s.googleAuth)
		cal.GET("/events", s.googleEvents)
		cal.GET("/feeds", s.feedEvents)
	}

	return r
}
