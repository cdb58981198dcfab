package ws

import (
	"github.com/Sathvik2005/Prepforge-sub003/internal/orchestrator"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

// Hints are served only through request_hint so candidates cannot read them
// off the question frame. These payload builders strip them.

func stripHint(q model.Question) model.Question {
	q.Hint = ""
	return q
}

func startPayload(res *orchestrator.StartResult) *orchestrator.StartResult {
	out := *res
	out.FirstQuestion = stripHint(res.FirstQuestion)
	return &out
}

func submitPayload(res *orchestrator.SubmitResult) *orchestrator.SubmitResult {
	out := *res
	if res.NextQuestion != nil {
		q := stripHint(*res.NextQuestion)
		out.NextQuestion = &q
	}
	return &out
}

// sanitizeEvent strips hints from orchestrator event payloads before they
// reach the room.
func sanitizeEvent(payload interface{}) interface{} {
	switch p := payload.(type) {
	case *orchestrator.StartResult:
		return startPayload(p)
	case *orchestrator.SubmitResult:
		return submitPayload(p)
	case *model.Session:
		return sessionPayload(p)
	}
	return payload
}

func sessionPayload(s *model.Session) *model.Session {
	out := *s
	if s.CurrentQuestion != nil {
		q := stripHint(*s.CurrentQuestion)
		out.CurrentQuestion = &q
	}
	return &out
}
