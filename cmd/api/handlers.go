package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/internal/auth"
	"github.com/Sathvik2005/Prepforge-sub003/internal/cache"
	"github.com/Sathvik2005/Prepforge-sub003/internal/parser"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// writeError maps the error taxonomy onto HTTP responses.
func writeError(c *gin.Context, err error) {
	msg := "internal server error"
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		response.BadRequest(c, msg)
	case apperr.KindNotFound:
		response.NotFound(c, msg)
	case apperr.KindPrecondition:
		response.PreconditionFailed(c, msg)
	case apperr.KindGone:
		response.Gone(c, msg)
	case apperr.KindUnauthorized:
		response.Unauthorized(c, msg)
	case apperr.KindConflict:
		response.Conflict(c, msg)
	default:
		response.InternalError(c, "")
	}
}

func (app *application) healthz(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{"status": "ok"}
	if err := app.DB.Ping(ctx); err != nil {
		status["status"] = "degraded"
		status["postgres"] = err.Error()
	}
	if err := cache.Ping(ctx, app.Redis); err != nil {
		status["status"] = "degraded"
		status["redis"] = err.Error()
	}
	response.OK(c, status)
}

type devTokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// devToken mints a token for local development; the route is only mounted in
// the development environment.
func (app *application) devToken(c *gin.Context) {
	var req devTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id is required")
		return
	}
	token, err := auth.GenerateToken(app.Config.JWT.Secret, req.UserID, app.Config.JWT.AccessTokenTTL)
	if err != nil {
		response.InternalError(c, "")
		return
	}
	response.OK(c, gin.H{"token": token, "expires_in": app.Config.JWT.AccessTokenTTL.String()})
}

type createDocumentRequest struct {
	Text       string `json:"text" binding:"required"`
	TargetRole string `json:"target_role"`
}

// createDocument stores a resume or job description and returns the ref a
// start_interview frame can point at.
func (app *application) createDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "text is required")
		return
	}
	doc, err := json.Marshal(gin.H{
		"text":        req.Text,
		"target_role": req.TargetRole,
		"user_id":     claimsFrom(c).UserID,
		"uploaded_at": time.Now().UTC(),
	})
	if err != nil {
		response.InternalError(c, "")
		return
	}
	ref := uuid.NewString()
	if _, err := app.Store.Put(c.Request.Context(), parser.KindDocument, ref, doc, 0); err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"ref": ref})
}

func (app *application) getSession(c *gin.Context) {
	s, err := app.Orch.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if s.UserID != claimsFrom(c).UserID {
		response.NotFound(c, "")
		return
	}
	response.OK(c, s)
}

func (app *application) getAnalytics(c *gin.Context) {
	a, err := app.Orch.GetAnalytics(c.Request.Context(), claimsFrom(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, a)
}

func (app *application) createRoadmap(c *gin.Context) {
	var req model.RoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "malformed roadmap request")
		return
	}
	req.UserID = claimsFrom(c).UserID

	rm, err := app.Planner.Generate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := app.Roadmaps.Save(c.Request.Context(), rm); err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, rm)
}

func (app *application) getRoadmap(c *gin.Context) {
	rm, err := app.Roadmaps.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rm.UserID != claimsFrom(c).UserID {
		response.NotFound(c, "")
		return
	}
	response.OK(c, rm)
}

func (app *application) listRoadmaps(c *gin.Context) {
	list, err := app.Roadmaps.ByUser(c.Request.Context(), claimsFrom(c).UserID, 20)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, list)
}

// importQuestions ingests an HTML question bank into the pool. The body is
// the bank itself; interview_type and source ride on the query string.
func (app *application) importQuestions(c *gin.Context) {
	itype := model.InterviewType(c.DefaultQuery("interview_type", string(model.InterviewTechnical)))
	switch itype {
	case model.InterviewTechnical, model.InterviewBehavioral, model.InterviewCoding, model.InterviewMixed:
	default:
		response.BadRequest(c, "unknown interview_type")
		return
	}
	source := c.DefaultQuery("source", "upload")

	n, err := app.Importer.Import(c.Request.Context(), c.Request.Body, itype, source)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"imported": n})
}
