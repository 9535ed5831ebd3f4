package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/prompt"
)

type startTestRequest struct {
	Subject string `json:"subject" binding:"required,max=100"`
	Topic   string `json:"topic" binding:"required,max=200"`
	Count   int    `json:"count" binding:"min=0,max=100"`
}

type submitAnswerRequest struct {
	QuestionIndex   *int     `json:"question_index" binding:"required"`
	SelectedAnswers []string `json:"selected_answers" binding:"max=6,dive,max=8"`
}

type studySessionRequest struct {
	Subject         string  `json:"subject" binding:"required,max=100"`
	DurationMinutes float64 `json:"duration_minutes" binding:"min=0,max=1440"`
	Score           float64 `json:"score" binding:"min=0,max=100"`
	Engagement      float64 `json:"engagement" binding:"min=0,max=1"`
}

type contentRequest struct {
	Subject string `json:"subject" binding:"required,max=100"`
	Topic   string `json:"topic" binding:"required,max=200"`
	Count   int    `json:"count" binding:"min=0,max=20"`
}

type studyPlanRequest struct {
	Subject  string `json:"subject" binding:"required,max=100"`
	DaysLeft int    `json:"days_left" binding:"required,min=1,max=60"`
}

func (s *Server) startTest(c *gin.Context) {
	var req startTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	started, err := s.Sessions.Create(c.Request.Context(), learnerFrom(c), req.Subject, req.Topic, req.Count)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, started)
}

func (s *Server) submitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	sub, err := s.Sessions.SubmitAnswer(c.Request.Context(), learnerFrom(c), c.Param("id"), *req.QuestionIndex, req.SelectedAnswers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) finishTest(c *gin.Context) {
	res, err := s.Sessions.Finish(c.Request.Context(), learnerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) reviewTest(c *gin.Context) {
	res, err := s.Sessions.Review(c.Request.Context(), learnerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) testHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 || limit > 100 {
		c.JSON(http.StatusBadRequest, errorBody{Error: "limit must be an integer in [0, 100]"})
		return
	}
	history, err := s.Sessions.History(c.Request.Context(), learnerFrom(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tests": history})
}

func (s *Server) getProfile(c *gin.Context) {
	p, err := s.Profiles.Profile(c.Request.Context(), learnerFrom(c))
	if err != nil {
		writeError(c, storeFailure("load profile", err))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) recordStudySession(c *gin.Context) {
	var req studySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	err := s.Profiles.Record(c.Request.Context(), learnerFrom(c), profile.Session{
		Subject:         req.Subject,
		DurationMinutes: req.DurationMinutes,
		Score:           req.Score,
		Engagement:      req.Engagement,
	})
	if err != nil {
		writeError(c, storeFailure("record study session", err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) exercises(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	p, err := s.Profiles.Profile(ctx, learnerFrom(c))
	if err != nil {
		writeError(c, storeFailure("load profile", err))
		return
	}
	c.JSON(http.StatusOK, s.Content.Exercises(ctx, prompt.Input{Profile: p, Subject: req.Subject, Topic: req.Topic, Count: countOr(req.Count, 5)}))
}

func (s *Server) flashcards(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Content.Flashcards(c.Request.Context(), prompt.Input{Subject: req.Subject, Topic: req.Topic, Count: countOr(req.Count, 5)}))
}

func (s *Server) studyPlan(c *gin.Context) {
	var req studyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	p, err := s.Profiles.Profile(ctx, learnerFrom(c))
	if err != nil {
		writeError(c, storeFailure("load profile", err))
		return
	}
	c.JSON(http.StatusOK, s.Content.StudyPlan(ctx, prompt.Input{Profile: p, Subject: req.Subject, DaysLeft: req.DaysLeft}))
}

func countOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
