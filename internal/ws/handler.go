package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/internal/auth"
	"github.com/Sathvik2005/Prepforge-sub003/internal/orchestrator"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const requestTimeout = 60 * time.Second

// Core is the orchestrator surface the wire needs.
type Core interface {
	StartSession(ctx context.Context, req orchestrator.StartRequest) (*orchestrator.StartResult, error)
	SubmitAnswer(ctx context.Context, req orchestrator.SubmitRequest) (*orchestrator.SubmitResult, error)
	PauseSession(ctx context.Context, sessionID string) error
	ResumeSession(ctx context.Context, sessionID string) error
	EndSession(ctx context.Context, sessionID string) (*model.Readiness, error)
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	RequestHint(ctx context.Context, sessionID string) (string, error)
	GetAnalytics(ctx context.Context, userID string) (*model.UserAnalytics, error)
}

type Handler struct {
	hub       *Hub
	core      Core
	jwtSecret string
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

func NewHandler(hub *Hub, core Core, jwtSecret string, trustedOrigins []string, log *zap.Logger) *Handler {
	allowed := map[string]bool{}
	for _, o := range trustedOrigins {
		allowed[strings.TrimSpace(o)] = true
	}
	return &Handler{
		hub:       hub,
		core:      core,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		log: log,
	}
}

// Serve upgrades the request. A valid token binds the connection to a user;
// without one the connection is accepted but every request is rejected as
// unauthorized until the client reconnects with a token.
func (h *Handler) Serve(c *gin.Context) {
	userID := h.authenticate(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Sugar().Warnw("ws upgrade failed", "err", err)
		return
	}
	client := newClient(conn, userID)
	go client.writePump()
	go client.readPump(h)
}

// authenticate reads the token from the query string (browsers cannot set
// headers on WebSocket upgrades) or the Authorization header.
func (h *Handler) authenticate(c *gin.Context) string {
	token := c.Query("token")
	if token == "" {
		fields := strings.Fields(c.GetHeader("Authorization"))
		if len(fields) == 2 && fields[0] == "Bearer" {
			token = fields[1]
		}
	}
	if token == "" {
		return ""
	}
	claims, err := auth.ParseToken(h.jwtSecret, token)
	if err != nil {
		h.log.Sugar().Debugw("ws token rejected", "err", err)
		return ""
	}
	return claims.UserID
}

// handle decodes one frame and routes it. The bool reports whether a
// response frame should be written (typing relays have no ack).
func (h *Handler) handle(c *Client, raw []byte) (Response, bool) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return fail(Request{}, apperr.New(apperr.KindInvalidInput, "malformed frame")), true
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch req.Kind {
	case KindStartInterview:
		return h.startInterview(ctx, c, req), true
	case KindSubmitAnswer:
		return h.submitAnswer(ctx, c, req), true
	case KindGetSession:
		return h.getSession(ctx, c, req), true
	case KindEndInterview:
		return h.endInterview(ctx, c, req), true
	case KindPause:
		return h.sessionOp(ctx, c, req, h.core.PauseSession), true
	case KindResume:
		return h.sessionOp(ctx, c, req, h.core.ResumeSession), true
	case KindRequestHint:
		return h.requestHint(ctx, c, req), true
	case KindGetAnalytics:
		return h.getAnalytics(ctx, c, req), true
	case KindTyping:
		h.relayTyping(c, req)
		return Response{}, false
	default:
		return fail(req, apperr.Newf(apperr.KindInvalidInput, "unknown request kind %q", req.Kind)), true
	}
}

type sessionRef struct {
	SessionID string `json:"session_id"`
}

// ownedSession resolves a session and hides it from everyone but its owner,
// the same way the REST surface does.
func (h *Handler) ownedSession(ctx context.Context, c *Client, sessionID string) (*model.Session, error) {
	s, err := h.core.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.UserID != c.userID {
		return nil, apperr.Newf(apperr.KindNotFound, "session %s not found", sessionID)
	}
	return s, nil
}

func (h *Handler) startInterview(ctx context.Context, c *Client, req Request) Response {
	if !c.authenticated() {
		return fail(req, apperr.New(apperr.KindUnauthorized, "authentication required"))
	}
	var body orchestrator.StartRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return fail(req, apperr.New(apperr.KindInvalidInput, "malformed start_interview payload"))
	}
	body.UserID = c.userID

	res, err := h.core.StartSession(ctx, body)
	if err != nil {
		return fail(req, err)
	}
	h.hub.join(res.SessionID, c)
	return ok(req, startPayload(res))
}

func (h *Handler) submitAnswer(ctx context.Context, c *Client, req Request) Response {
	if !c.authenticated() {
		return fail(req, apperr.New(apperr.KindUnauthorized, "authentication required"))
	}
	var body orchestrator.SubmitRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil || body.SessionID == "" {
		return fail(req, apperr.New(apperr.KindInvalidInput, "malformed submit_answer payload"))
	}
	if _, err := h.ownedSession(ctx, c, body.SessionID); err != nil {
		return fail(req, err)
	}
	res, err := h.core.SubmitAnswer(ctx, body)
	if err != nil {
		return fail(req, err)
	}
	return ok(req, submitPayload(res))
}

func (h *Handler) getSession(ctx context.Context, c *Client, req Request) Response {
	if !c.authenticated() {
		return fail(req, apperr.New(apperr.KindUnauthorized, "authentication required"))
	}
	var ref sessionRef
	if err := json.Unmarshal(req.Payload, &ref); err != nil || ref.SessionID == "" {
		return fail(req, apperr.New(apperr.KindInvalidInput, "session_id is required"))
	}
	s, err := h.ownedSession(ctx, c, ref.SessionID)
	if err != nil {
		return fail(req, err)
	}
	h.hub.join(s.ID, c)
	return ok(req, sessionPayload(s))
}

func (h *Handler) endInterview(ctx context.Context, c *Client, req Request) Response {
	if !c.authenticated() {
		return fail(req, apperr.New(apperr.KindUnauthorized, "authentication required"))
	}
	var ref sessionRef
	if err := json.Unmarshal(req.Payload, &ref); err != nil || ref.SessionID == "" {
		return fail(req, apperr.New(apperr.KindInvalidInput, "session_id is required"))
	}
	if _, err := h.ownedSession(ctx, c, ref.SessionID); err != nil {
		return fail(req, err)
	}
	summary, err := h.core.EndSession(ctx, ref.SessionID)
	if err != nil {
		return fail(req, err)
	}
	return ok(req, gin.H{"session_id": ref.SessionID, "summary": summary})
}

func (h *Handler) sessionOp(ctx context.Context, c *Client, req Request, op func(context.Context, string) error) Response {
	if !c.authenticated() {
		return fail(req, apperr.New(apperr.KindUnauthorized, "authentication required"))
	}
	var ref sessionRef
	if err := json.Unmarshal(req.Payload, &ref); err != nil || ref.SessionID == "" {
		return fail(req, apperr.New(apperr.KindInvalidInput, "session_id is required"))
	}
	if _, err := h.ownedSession(ctx, c, ref.SessionID); err != nil {
		return fail(req, err)
	}
	if err := op(ctx, ref.SessionID); err != nil {
		return fail(req, err)
	}
	return ok(req, gin.H{"session_id": ref.SessionID})
}

func (h *Handler) requestHint(ctx context.Context, c *Client, req Request) Response {
	if !c.authenticated() {
		return fail(req, apperr.New(apperr.KindUnauthorized, "authentication required"))
	}
	var ref sessionRef
	if err := json.Unmarshal(req.Payload, &ref); err != nil || ref.SessionID == "" {
		return fail(req, apperr.New(apperr.KindInvalidInput, "session_id is required"))
	}
	if _, err := h.ownedSession(ctx, c, ref.SessionID); err != nil {
		return fail(req, err)
	}
	hint, err := h.core.RequestHint(ctx, ref.SessionID)
	if err != nil {
		return fail(req, err)
	}
	return ok(req, gin.H{"session_id": ref.SessionID, "hint": hint})
}

func (h *Handler) getAnalytics(ctx context.Context, c *Client, req Request) Response {
	if !c.authenticated() {
		return fail(req, apperr.New(apperr.KindUnauthorized, "authentication required"))
	}
	a, err := h.core.GetAnalytics(ctx, c.userID)
	if err != nil {
		return fail(req, err)
	}
	return ok(req, a)
}

// relayTyping forwards a typing indicator to the rest of the room. Nothing
// is persisted and there is no ack.
func (h *Handler) relayTyping(c *Client, req Request) {
	var ref sessionRef
	if err := json.Unmarshal(req.Payload, &ref); err != nil || ref.SessionID == "" {
		return
	}
	if !c.rooms[ref.SessionID] {
		return
	}
	h.hub.broadcast(ref.SessionID, Event{
		Kind:      kindEvent,
		Event:     "candidate_typing",
		SessionID: ref.SessionID,
		Data:      gin.H{"user_id": c.userID},
	}, c)
}
