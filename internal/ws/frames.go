package ws

import (
	"encoding/json"
	"errors"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/response"
)

// Request kinds accepted over the socket. Unknown kinds are rejected with an
// invalid-input ack; unknown payload fields are ignored.
const (
	KindStartInterview = "start_interview"
	KindSubmitAnswer   = "submit_answer"
	KindGetSession     = "get_session"
	KindEndInterview   = "end_interview"
	KindPause          = "pause"
	KindResume         = "resume"
	KindRequestHint    = "request_hint"
	KindGetAnalytics   = "get_analytics"
	KindTyping         = "typing"
)

// Request is one client frame. ID is echoed on the ack so clients can match
// responses to in-flight requests.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response acks a Request.
type Response struct {
	ID      string              `json:"id,omitempty"`
	Kind    string              `json:"kind"`
	Success bool                `json:"success"`
	Data    interface{}         `json:"data,omitempty"`
	Error   *response.ErrorInfo `json:"error,omitempty"`
}

// Event is a server push to every connection in a session room.
type Event struct {
	Kind      string      `json:"kind"`
	Event     string      `json:"event"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
}

const kindEvent = "event"

func marshalFrame(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func ok(req Request, data interface{}) Response {
	return Response{ID: req.ID, Kind: req.Kind, Success: true, Data: data}
}

func fail(req Request, err error) Response {
	msg := "internal error"
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	return Response{
		ID:      req.ID,
		Kind:    req.Kind,
		Success: false,
		Error:   &response.ErrorInfo{Code: string(apperr.KindOf(err)), Message: msg},
	}
}
