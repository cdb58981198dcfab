package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/Sathvik2005/Prepforge-sub003/internal/orchestrator"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
	"go.uber.org/zap"
)

type stubCore struct {
	start   *orchestrator.StartResult
	submit  *orchestrator.SubmitResult
	session *model.Session
	err     error
	hint    string
	calls   []string
}

func (s *stubCore) StartSession(_ context.Context, _ orchestrator.StartRequest) (*orchestrator.StartResult, error) {
	s.calls = append(s.calls, "start")
	return s.start, s.err
}

func (s *stubCore) SubmitAnswer(_ context.Context, _ orchestrator.SubmitRequest) (*orchestrator.SubmitResult, error) {
	s.calls = append(s.calls, "submit")
	return s.submit, s.err
}

func (s *stubCore) PauseSession(_ context.Context, _ string) error {
	s.calls = append(s.calls, "pause")
	return s.err
}

func (s *stubCore) ResumeSession(_ context.Context, _ string) error {
	s.calls = append(s.calls, "resume")
	return s.err
}

func (s *stubCore) EndSession(_ context.Context, _ string) (*model.Readiness, error) {
	s.calls = append(s.calls, "end")
	return &model.Readiness{}, s.err
}

func (s *stubCore) GetSession(_ context.Context, _ string) (*model.Session, error) {
	s.calls = append(s.calls, "get")
	return s.session, s.err
}

func (s *stubCore) RequestHint(_ context.Context, _ string) (string, error) {
	s.calls = append(s.calls, "hint")
	return s.hint, s.err
}

func (s *stubCore) GetAnalytics(_ context.Context, userID string) (*model.UserAnalytics, error) {
	s.calls = append(s.calls, "analytics")
	return &model.UserAnalytics{UserID: userID}, s.err
}

func newTestHandler(core Core) (*Handler, *Hub) {
	hub := NewHub(zap.NewNop())
	return NewHandler(hub, core, "secret", nil, zap.NewNop()), hub
}

func frame(t *testing.T, id, kind string, payload interface{}) []byte {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		raw = b
	}
	b, err := json.Marshal(Request{ID: id, Kind: kind, Payload: raw})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleMalformedAndUnknownFrames(t *testing.T) {
	h, _ := newTestHandler(&stubCore{})
	c := newClient(nil, "u1")

	resp, send := h.handle(c, []byte("{not json"))
	if !send || resp.Success || resp.Error.Code != string(apperr.KindInvalidInput) {
		t.Errorf("malformed frame resp = %+v", resp)
	}

	resp, _ = h.handle(c, frame(t, "7", "subscribe", nil))
	if resp.Success || resp.Error.Code != string(apperr.KindInvalidInput) {
		t.Errorf("unknown kind resp = %+v", resp)
	}
	if resp.ID != "7" {
		t.Errorf("resp id = %q, want request id echoed", resp.ID)
	}
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	core := &stubCore{session: &model.Session{ID: "s1", Status: model.StatusActive}}
	h, _ := newTestHandler(core)
	anon := newClient(nil, "")

	kinds := []string{KindStartInterview, KindSubmitAnswer, KindGetSession, KindEndInterview, KindPause, KindResume, KindRequestHint, KindGetAnalytics}
	for _, kind := range kinds {
		resp, _ := h.handle(anon, frame(t, "1", kind, map[string]string{"session_id": "s1", "answer": "x"}))
		if resp.Success || resp.Error.Code != string(apperr.KindUnauthorized) {
			t.Errorf("%s: resp = %+v, want unauthorized", kind, resp)
		}
	}
	if len(core.calls) != 0 {
		t.Errorf("core reached by unauthenticated request: %v", core.calls)
	}
}

func TestSessionOpsRequireOwnership(t *testing.T) {
	core := &stubCore{
		session: &model.Session{ID: "s1", UserID: "owner", Status: model.StatusActive},
		submit:  &orchestrator.SubmitResult{Type: orchestrator.SubmitNextQuestion},
		hint:    "try a smaller input first",
	}
	h, hub := newTestHandler(core)
	intruder := newClient(nil, "mallory")

	for _, kind := range []string{KindSubmitAnswer, KindGetSession, KindEndInterview, KindPause, KindResume, KindRequestHint} {
		resp, _ := h.handle(intruder, frame(t, "1", kind, map[string]string{"session_id": "s1", "answer": "x"}))
		if resp.Success || resp.Error.Code != string(apperr.KindNotFound) {
			t.Errorf("%s: resp = %+v, want not-found for a non-owner", kind, resp)
		}
	}
	for _, call := range core.calls {
		if call != "get" {
			t.Fatalf("core op %q reached despite ownership check", call)
		}
	}
	if hub.roomSize("s1") != 0 {
		t.Error("non-owner joined the session room")
	}

	owner := newClient(nil, "owner")
	resp, _ := h.handle(owner, frame(t, "2", KindPause, sessionRef{SessionID: "s1"}))
	if !resp.Success {
		t.Fatalf("owner pause failed: %+v", resp.Error)
	}
}

func TestPauseResumeWireNames(t *testing.T) {
	core := &stubCore{session: &model.Session{ID: "s1", UserID: "u1", Status: model.StatusActive}}
	h, _ := newTestHandler(core)
	c := newClient(nil, "u1")

	for _, kind := range []string{"pause", "resume"} {
		resp, _ := h.handle(c, frame(t, "1", kind, sessionRef{SessionID: "s1"}))
		if !resp.Success {
			t.Fatalf("%s: resp = %+v", kind, resp.Error)
		}
		if got := core.calls[len(core.calls)-1]; got != kind {
			t.Errorf("%s routed to core op %q", kind, got)
		}
	}
}

func TestStartInterviewJoinsRoomAndStripsHint(t *testing.T) {
	core := &stubCore{start: &orchestrator.StartResult{
		SessionID: "s1",
		FirstQuestion: model.Question{
			Text: "Explain MVCC in PostgreSQL.",
			Hint: "think about row versions",
		},
	}}
	h, hub := newTestHandler(core)
	c := newClient(nil, "u1")

	resp, _ := h.handle(c, frame(t, "1", KindStartInterview, orchestrator.StartRequest{
		ResumeRef:     "resume-1",
		InterviewType: model.InterviewTechnical,
	}))
	if !resp.Success {
		t.Fatalf("start failed: %+v", resp.Error)
	}
	if hub.roomSize("s1") != 1 {
		t.Errorf("room size = %d, want 1", hub.roomSize("s1"))
	}
	res := resp.Data.(*orchestrator.StartResult)
	if res.FirstQuestion.Hint != "" {
		t.Error("hint leaked on question frame")
	}
	// original untouched
	if core.start.FirstQuestion.Hint == "" {
		t.Error("sanitizer mutated the orchestrator result")
	}
}

func TestErrorKindsMapToCodes(t *testing.T) {
	core := &stubCore{err: apperr.New(apperr.KindGone, "session s1 is completed")}
	h, _ := newTestHandler(core)
	c := newClient(nil, "u1")

	resp, _ := h.handle(c, frame(t, "1", KindSubmitAnswer, orchestrator.SubmitRequest{SessionID: "s1", Answer: "x"}))
	if resp.Success || resp.Error.Code != "gone" {
		t.Errorf("resp = %+v, want gone", resp)
	}
	if resp.Error.Message == "" {
		t.Error("error message missing")
	}
}

func TestEmitSanitizesAndFansOut(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := newClient(nil, "u1")
	b := newClient(nil, "")
	hub.join("s1", a)
	hub.join("s1", b)

	q := model.Question{Text: "next", Hint: "secret"}
	hub.Emit("s1", orchestrator.EventNextQuestion, &orchestrator.SubmitResult{
		Type:         orchestrator.SubmitNextQuestion,
		NextQuestion: &q,
	})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.send:
			var ev struct {
				Kind  string `json:"kind"`
				Event string `json:"event"`
				Data  struct {
					NextQuestion *model.Question `json:"next_question"`
				} `json:"data"`
			}
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatal(err)
			}
			if ev.Kind != "event" || ev.Event != orchestrator.EventNextQuestion {
				t.Errorf("frame = %+v", ev)
			}
			if ev.Data.NextQuestion.Hint != "" {
				t.Error("hint leaked in room event")
			}
		default:
			t.Fatal("client did not receive the event")
		}
	}
}

func TestTypingRelaysToRoomOnly(t *testing.T) {
	h, hub := newTestHandler(&stubCore{})
	sender := newClient(nil, "u1")
	listener := newClient(nil, "")
	outsider := newClient(nil, "")
	hub.join("s1", sender)
	hub.join("s1", listener)
	hub.join("s2", outsider)

	_, send := h.handle(sender, frame(t, "", KindTyping, sessionRef{SessionID: "s1"}))
	if send {
		t.Error("typing should not be acked")
	}

	select {
	case raw := <-listener.send:
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Event != "candidate_typing" || ev.SessionID != "s1" {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("room member did not receive typing event")
	}
	if len(sender.send) != 0 {
		t.Error("typing echoed to sender")
	}
	if len(outsider.send) != 0 {
		t.Error("typing leaked to another room")
	}

	// typing outside a joined room is dropped
	_, send = h.handle(sender, frame(t, "", KindTyping, sessionRef{SessionID: "s2"}))
	if send || len(outsider.send) != 0 {
		t.Error("typing relayed for a room the sender never joined")
	}
}

// emittingCore pushes the room event before returning, the way the
// orchestrator does on submit.
type emittingCore struct {
	stubCore
	hub *Hub
}

func (e *emittingCore) SubmitAnswer(_ context.Context, req orchestrator.SubmitRequest) (*orchestrator.SubmitResult, error) {
	res := &orchestrator.SubmitResult{
		Type:         orchestrator.SubmitNextQuestion,
		NextQuestion: &model.Question{Text: "next"},
	}
	e.hub.Emit(req.SessionID, orchestrator.EventNextQuestion, res)
	return res, nil
}

func TestAckPrecedesRoomPushForSubmitter(t *testing.T) {
	hub := NewHub(zap.NewNop())
	core := &emittingCore{hub: hub}
	core.session = &model.Session{ID: "s1", UserID: "u1", Status: model.StatusActive}
	h := NewHandler(hub, core, "secret", nil, zap.NewNop())
	submitter := newClient(nil, "u1")
	listener := newClient(nil, "")
	hub.join("s1", submitter)
	hub.join("s1", listener)

	submitter.handleMessage(h, frame(t, "1", KindSubmitAnswer, orchestrator.SubmitRequest{SessionID: "s1", Answer: "x"}))

	var kinds []string
drain:
	for {
		select {
		case raw := <-submitter.send:
			var f struct {
				Kind string `json:"kind"`
			}
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatal(err)
			}
			kinds = append(kinds, f.Kind)
		default:
			break drain
		}
	}
	if len(kinds) != 2 || kinds[0] != KindSubmitAnswer || kinds[1] != kindEvent {
		t.Fatalf("frame order on the submitter's socket = %v, want [%s %s]", kinds, KindSubmitAnswer, kindEvent)
	}
	if len(listener.send) != 1 {
		t.Errorf("listener received %d frames, want the push immediately", len(listener.send))
	}
}

func TestDisconnectDuringFanoutDoesNotPanic(t *testing.T) {
	hub := NewHub(zap.NewNop())
	payload := &orchestrator.SubmitResult{Type: orchestrator.SubmitNextQuestion}
	for i := 0; i < 50; i++ {
		c := newClient(nil, "u1")
		hub.join("s1", c)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				hub.Emit("s1", orchestrator.EventNextQuestion, payload)
			}
		}()
		go func() {
			defer wg.Done()
			hub.leaveAll(c)
			c.dispose()
		}()
		wg.Wait()

		if c.enqueue([]byte("{}")) {
			t.Fatal("enqueue succeeded after dispose")
		}
	}
}

func TestLeaveAllDropsRooms(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newClient(nil, "u1")
	hub.join("s1", c)
	hub.join("s2", c)

	hub.leaveAll(c)
	if hub.roomSize("s1") != 0 || hub.roomSize("s2") != 0 {
		t.Error("rooms not emptied on disconnect")
	}
}
