package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mentorweb/backend/internal/domain"
	"mentorweb/backend/internal/service/schedules"
)

type createSubjectRequest struct {
	Name string `json:"class_name"`
	domain.SubjectFields
}

func subjectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "subject id must be a positive integer")
		return 0, false
	}
	return id, true
}

// GET /api/subjects
func (s *Server) listSubjects(c *gin.Context) {
	subjects, err := s.Subjects.ListSubjects(c.Request.Context(), ownerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if subjects == nil {
		subjects = []domain.Subject{}
	}
	c.JSON(http.StatusOK, subjects)
}

// POST /api/subjects
func (s *Server) createSubject(c *gin.Context) {
	var req createSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	subj, err := s.Subjects.CreateSubject(c.Request.Context(), schedules.CreateSubjectInput{
		OwnerID: ownerID(c),
		Name:    req.Name,
		Fields:  req.SubjectFields,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subj)
}

// GET /api/subjects/:id
func (s *Server) getSubject(c *gin.Context) {
	id, ok := subjectID(c)
	if !ok {
		return
	}
	subj, err := s.Subjects.GetSubject(c.Request.Context(), ownerID(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subj)
}

// POST /api/subjects/:id/details
func (s *Server) saveDetails(c *gin.Context) {
	id, ok := subjectID(c)
	if !ok {
		return
	}
	var fields domain.SubjectFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, err.Error())
		return
	}
	subj, err := s.Subjects.SaveDetails(c.Request.Context(), ownerID(c), id, fields)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subj)
}

// GET /api/subjects/:id/times
// GET /api/subjects/:id/times?view=day&category=office_hours
func (s *Server) loadTimes(c *gin.Context) {
	id, ok := subjectID(c)
	if !ok {
		return
	}
	records, err := s.Subjects.LoadTimeBlocks(c.Request.Context(), ownerID(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	set := &domain.BlockSet{}
	if rejected := set.Hydrate(records); len(rejected) > 0 {
		s.log.Warn("stored time blocks rejected", "subject_id", id, "count", len(rejected))
	}

	if c.Query("view") != "day" {
		c.JSON(http.StatusOK, set.FlatView())
		return
	}
	category, err := domain.ParseCategory(c.Query("category"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, set.DayKeyed(category))
}

// POST /api/subjects/:id/times
// Body is the whole flat view; it replaces the stored schedule.
func (s *Server) saveTimes(c *gin.Context) {
	id, ok := subjectID(c)
	if !ok {
		return
	}
	var blocks []domain.TimeInterval
	if err := c.ShouldBindJSON(&blocks); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.Subjects.SaveTimeBlocks(c.Request.Context(), ownerID(c), id, blocks); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/subjects/:id/occurrences?from=RFC3339&to=RFC3339
func (s *Server) occurrences(c *gin.Context) {
	id, ok := subjectID(c)
	if !ok {
		return
	}
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		badRequest(c, "from must be an RFC 3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		badRequest(c, "to must be an RFC 3339 timestamp")
		return
	}
	occs, err := s.Subjects.Occurrences(c.Request.Context(), ownerID(c), id, from, to)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if occs == nil {
		occs = []domain.Occurrence{}
	}
	c.JSON(http.StatusOK, occs)
}
