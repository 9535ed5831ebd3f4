// Package httpapi exposes the engine over HTTP with gin. Authentication is
// handled upstream; the caller's account id arrives in the X-Account-ID
// header and is turned into a learner identity here.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lernbuddy/internal/content"
	"github.com/abhisek/lernbuddy/internal/identity"
	"github.com/abhisek/lernbuddy/internal/logger"
	"github.com/abhisek/lernbuddy/internal/metrics"
	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/prompt"
	"github.com/abhisek/lernbuddy/internal/testsession"
)

// AccountHeader carries the authenticated account id.
const AccountHeader = "X-Account-ID"

const learnerKey = "learner"

// Sessions is implemented by *testsession.Service.
type Sessions interface {
	Create(ctx context.Context, learner identity.Learner, subject, topic string, count int) (*testsession.Started, error)
	SubmitAnswer(ctx context.Context, learner identity.Learner, id string, index int, selected []string) (*testsession.Submission, error)
	Finish(ctx context.Context, learner identity.Learner, id string) (*testsession.Result, error)
	Review(ctx context.Context, learner identity.Learner, id string) (*testsession.Result, error)
	History(ctx context.Context, learner identity.Learner, limit int) ([]testsession.Summary, error)
}

// Profiles is implemented by *profile.Analyzer.
type Profiles interface {
	Profile(ctx context.Context, learner identity.Learner) (profile.Profile, error)
	Record(ctx context.Context, learner identity.Learner, s profile.Session) error
}

// Content is implemented by *generation.Service.
type Content interface {
	Exercises(ctx context.Context, in prompt.Input) content.Generated[content.ExerciseSet]
	Flashcards(ctx context.Context, in prompt.Input) content.Generated[content.FlashcardSet]
	StudyPlan(ctx context.Context, in prompt.Input) content.Generated[content.StudyPlan]
}

// Deps are the collaborators of the server. Metrics and Log may be nil.
type Deps struct {
	Sessions Sessions
	Profiles Profiles
	Content  Content
	Metrics  *metrics.Metrics
	Log      *logger.Logger
}

// Server holds the gin engine and its handlers.
type Server struct {
	Deps
	engine *gin.Engine
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	s := &Server{Deps: d, engine: gin.New()}
	s.engine.Use(gin.Recovery(), s.accessLog())
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	api := r.Group("/api", requireLearner())
	api.POST("/tests", s.startTest)
	api.GET("/tests/history", s.testHistory)
	api.GET("/tests/:id", s.reviewTest)
	api.POST("/tests/:id/answers", s.submitAnswer)
	api.POST("/tests/:id/finish", s.finishTest)

	api.GET("/profile", s.getProfile)
	api.POST("/study-sessions", s.recordStudySession)

	api.POST("/exercises", s.exercises)
	api.POST("/flashcards", s.flashcards)
	api.POST("/study-plan", s.studyPlan)
}

// requireLearner derives the learner identity from the account header.
func requireLearner() gin.HandlerFunc {
	return func(c *gin.Context) {
		account := strings.TrimSpace(c.GetHeader(AccountHeader))
		if account == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing " + AccountHeader + " header"})
			return
		}
		c.Set(learnerKey, identity.FromAccount(account))
		c.Next()
	}
}

func learnerFrom(c *gin.Context) identity.Learner {
	return c.MustGet(learnerKey).(identity.Learner)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.Debug("http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
