package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorweb/backend/internal/domain"
)

type selectSubjectRequest struct {
	SubjectID int64 `json:"subject_id"`
}

type editFieldRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// POST /api/sessions
func (s *Server) openSession(c *gin.Context) {
	sess, err := s.Editing.Open(ownerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.State())
}

// GET /api/sessions/:sid
func (s *Server) sessionState(c *gin.Context) {
	sess, err := s.Editing.Get(ownerID(c), c.Param("sid"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

// DELETE /api/sessions/:sid
func (s *Server) closeSession(c *gin.Context) {
	if err := s.Editing.Close(ownerID(c), c.Param("sid")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/sessions/:sid/subject
func (s *Server) selectSubject(c *gin.Context) {
	var req selectSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.SubjectID <= 0 {
		badRequest(c, "subject_id is required")
		return
	}
	st, err := s.Editing.SelectSubject(c.Request.Context(), ownerID(c), c.Param("sid"), req.SubjectID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// POST /api/sessions/:sid/fields
func (s *Server) editField(c *gin.Context) {
	var req editFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sess, err := s.Editing.Get(ownerID(c), c.Param("sid"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := sess.EditField(req.Name, req.Value); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

// POST /api/sessions/:sid/times
// Body is one week-grid edit: {"type", "day", "value": ["09:00", "10:00"]}
// or an empty value to clear the day.
func (s *Server) editTimes(c *gin.Context) {
	var edit domain.BlockEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		badRequest(c, err.Error())
		return
	}
	sess, err := s.Editing.Get(ownerID(c), c.Param("sid"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := sess.EditBlock(edit); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

// POST /api/sessions/:sid/save
func (s *Server) saveSession(c *gin.Context) {
	st, err := s.Editing.Save(c.Request.Context(), ownerID(c), c.Param("sid"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// POST /api/sessions/:sid/discard
func (s *Server) discardSession(c *gin.Context) {
	st, err := s.Editing.Discard(ownerID(c), c.Param("sid"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
