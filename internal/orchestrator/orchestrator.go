// Package orchestrator is the public surface of the interview core. It wires
// parser, evaluator, selector and session state behind per-session mailboxes
// so each session is single-writer while sessions run in parallel.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/internal/evaluator"
	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/internal/parser"
	"github.com/Sathvik2005/Prepforge-sub003/internal/selector"
	"github.com/Sathvik2005/Prepforge-sub003/internal/session"
	"github.com/Sathvik2005/Prepforge-sub003/internal/store"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// Event names pushed to session rooms.
const (
	EventInterviewStarted   = "interview_started"
	EventNextQuestion       = "next_question"
	EventFollowUpQuestion   = "follow_up_question"
	EventInterviewCompleted = "interview_completed"
	EventInterviewEnded     = "interview_ended"
)

// EventSink receives server-push events for a session room. The transport
// adapter implements it; tests use a recorder.
type EventSink interface {
	Emit(sessionID, event string, payload interface{})
}

// Hinter phrases hints for the pending question.
type Hinter interface {
	Hint(ctx context.Context, question, topic string, timeout time.Duration) (string, error)
}

// AnswerEvaluator scores one answered question.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, in evaluator.Input) evaluator.Result
}

type Config struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	HintTimeout   time.Duration
}

type Orchestrator struct {
	sessions *store.Sessions
	parser   parser.DocumentParser
	eval     AnswerEvaluator
	sel      *selector.Selector
	ont      *ontology.Ontology
	events   EventSink
	hinter   Hinter
	cfg      Config
	log      *zap.Logger
	now      func() time.Time

	boxes *mailboxes
}

func New(sessions *store.Sessions, p parser.DocumentParser, eval AnswerEvaluator, sel *selector.Selector, ont *ontology.Ontology, events EventSink, hinter Hinter, cfg Config, log *zap.Logger) *Orchestrator {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.HintTimeout == 0 {
		cfg.HintTimeout = 10 * time.Second
	}
	return &Orchestrator{
		sessions: sessions,
		parser:   p,
		eval:     eval,
		sel:      sel,
		ont:      ont,
		events:   events,
		hinter:   hinter,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		boxes:    newMailboxes(),
	}
}

// WithClock pins the orchestrator clock for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Close stops all session mailboxes.
func (o *Orchestrator) Close() {
	o.boxes.close()
}

type StartRequest struct {
	UserID        string              `json:"user_id"`
	ResumeRef     string              `json:"resume_ref"`
	JDRef         string              `json:"jd_ref,omitempty"`
	InterviewType model.InterviewType `json:"interview_type"`
	Config        model.SessionConfig `json:"config"`
}

type TurnContext struct {
	TargetRole string   `json:"target_role"`
	PlanSkills []string `json:"plan_skills"`
	TurnNumber int      `json:"turn_number"`
}

type StartResult struct {
	SessionID     string         `json:"session_id"`
	FirstQuestion model.Question `json:"first_question"`
	Context       TurnContext    `json:"context"`
}

// StartSession resolves the resume/JD refs, derives the topic plan, creates
// the session and poses the first question.
func (o *Orchestrator) StartSession(ctx context.Context, req StartRequest) (*StartResult, error) {
	if req.UserID == "" || req.ResumeRef == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "user_id and resume_ref are required")
	}
	switch req.InterviewType {
	case model.InterviewTechnical, model.InterviewBehavioral, model.InterviewCoding, model.InterviewMixed:
	default:
		return nil, apperr.Newf(apperr.KindInvalidInput, "unknown interview type %q", req.InterviewType)
	}

	resume, err := o.parser.Parse(ctx, req.ResumeRef)
	if err != nil {
		return nil, err
	}
	var jd *parser.Parsed
	if req.JDRef != "" {
		if jd, err = o.parser.Parse(ctx, req.JDRef); err != nil {
			return nil, err
		}
	}

	plan := parser.PlanSkills(resume, jd, o.ont, req.InterviewType)
	targetRole := resume.TargetRole
	if jd != nil && jd.TargetRole != "" {
		targetRole = jd.TargetRole
	}

	s := session.New(req.UserID, targetRole, req.InterviewType, plan, req.Config, o.now())
	s.ResumeExcerpt = excerpt(resume.Text, 500)

	d, err := o.sel.Next(ctx, s, s.ResumeExcerpt)
	if err != nil {
		return nil, err
	}
	if d.Kind == selector.KindTerminate {
		return nil, apperr.New(apperr.KindInternal, "selector terminated a fresh session")
	}
	q := d.Question
	q.Degraded = d.LLMDegraded
	s.Difficulty = d.Difficulty
	if err := session.MarkPosed(s, q, o.now()); err != nil {
		return nil, err
	}
	if err := o.persist(ctx, s); err != nil {
		return nil, err
	}

	res := &StartResult{
		SessionID:     s.ID,
		FirstQuestion: q,
		Context: TurnContext{
			TargetRole: s.TargetRole,
			PlanSkills: s.PlanSkills,
			TurnNumber: 1,
		},
	}
	o.emit(s.ID, EventInterviewStarted, res)
	return res, nil
}

type SubmitRequest struct {
	SessionID    string  `json:"session_id"`
	Answer       string  `json:"answer"`
	TimeSpentSec int     `json:"time_spent_sec"`
	MediaRef     *string `json:"media_ref,omitempty"`
	// TestPassFrac is the hidden-test pass fraction the code runner reports
	// for coding answers; nil when no tests ran.
	TestPassFrac *float64 `json:"test_pass_frac,omitempty"`
}

type SubmitType string

const (
	SubmitNextQuestion SubmitType = "next-question"
	SubmitFollowUp     SubmitType = "follow-up"
	SubmitComplete     SubmitType = "interview-complete"
)

type SubmitResult struct {
	Type         SubmitType       `json:"type"`
	Evaluation   model.Evaluation `json:"evaluation"`
	NextQuestion *model.Question  `json:"next_question,omitempty"`
	Summary      *model.Readiness `json:"summary,omitempty"`
	Context      *TurnContext     `json:"context,omitempty"`
}

// SubmitAnswer evaluates one answer and advances the session. Concurrent
// submits on the same session are serialized by the mailbox; each request
// observes the state the previous one left behind.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.SessionID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "session_id is required")
	}
	var res *SubmitResult
	err := o.boxes.do(ctx, req.SessionID, func() error {
		var err error
		res, err = o.submitAnswer(ctx, req)
		return err
	})
	return res, err
}

func (o *Orchestrator) submitAnswer(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	s, err := o.sessions.Load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return nil, apperr.Newf(apperr.KindGone, "session %s is %s", s.ID, s.Status)
	}
	if s.Status != model.StatusActive {
		return nil, apperr.Newf(apperr.KindPrecondition, "session %s is %s", s.ID, s.Status)
	}
	if s.CurrentQuestion == nil {
		return nil, apperr.Newf(apperr.KindPrecondition, "session %s has no pending question", s.ID)
	}

	answer := model.Answer{Text: req.Answer, TimeSpentSec: req.TimeSpentSec, MediaRef: req.MediaRef}
	in := evaluator.Input{
		Question:      *s.CurrentQuestion,
		Answer:        answer,
		InterviewType: s.InterviewType,
	}
	if req.TestPassFrac != nil {
		in.HasTests = true
		in.TestPassFrac = *req.TestPassFrac
	}
	evalRes := o.eval.Evaluate(ctx, in)

	turn, err := session.AppendTurn(s, answer, evalRes.Evaluation, model.DecisionNewTopic, evalRes.CandidateGaps, o.now())
	if err != nil {
		return nil, err
	}

	d, err := o.sel.Next(ctx, s, s.ResumeExcerpt)
	if err != nil {
		return nil, err
	}

	switch d.Kind {
	case selector.KindTerminate:
		turn.Decision = model.DecisionTerminate
		if err := session.Complete(s, o.now()); err != nil {
			return nil, err
		}
		summary := o.computeReadiness(s)
		if err := o.persist(ctx, s); err != nil {
			return nil, err
		}
		if err := o.sessions.SaveReadiness(ctx, summary); err != nil {
			o.log.Sugar().Errorw("persist readiness failed", "session_id", s.ID, "err", err)
		}
		res := &SubmitResult{Type: SubmitComplete, Evaluation: turn.Evaluation, Summary: summary}
		o.emit(s.ID, EventInterviewCompleted, res)
		return res, nil

	case selector.KindFollowUp:
		turn.Decision = model.DecisionFollowUp
	default:
		turn.Decision = model.DecisionNewTopic
	}

	q := d.Question
	q.Degraded = d.LLMDegraded
	s.Difficulty = d.Difficulty
	if err := session.MarkPosed(s, q, o.now()); err != nil {
		return nil, err
	}
	if err := o.persist(ctx, s); err != nil {
		return nil, err
	}

	res := &SubmitResult{
		Type:         SubmitNextQuestion,
		Evaluation:   turn.Evaluation,
		NextQuestion: &q,
		Context: &TurnContext{
			TargetRole: s.TargetRole,
			PlanSkills: s.PlanSkills,
			TurnNumber: len(s.Turns) + 1,
		},
	}
	event := EventNextQuestion
	if d.Kind == selector.KindFollowUp {
		res.Type = SubmitFollowUp
		event = EventFollowUpQuestion
	}
	o.emit(s.ID, event, res)
	return res, nil
}

// Pause, Resume and End run through the mailbox so they order behind any
// in-flight submit on the same session.

func (o *Orchestrator) PauseSession(ctx context.Context, sessionID string) error {
	return o.mutate(ctx, sessionID, func(s *model.Session) error {
		return session.Pause(s, o.now())
	})
}

func (o *Orchestrator) ResumeSession(ctx context.Context, sessionID string) error {
	return o.mutate(ctx, sessionID, func(s *model.Session) error {
		return session.Resume(s, o.now())
	})
}

// EndSession terminates by user request and emits interview_ended. If a
// submit is in flight the end runs after it completes.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) (*model.Readiness, error) {
	var summary *model.Readiness
	err := o.boxes.do(ctx, sessionID, func() error {
		s, err := o.sessions.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := session.Terminate(s, o.now()); err != nil {
			return err
		}
		summary = o.computeReadiness(s)
		if err := o.persist(ctx, s); err != nil {
			return err
		}
		if err := o.sessions.SaveReadiness(ctx, summary); err != nil {
			o.log.Sugar().Errorw("persist readiness failed", "session_id", s.ID, "err", err)
		}
		o.emit(sessionID, EventInterviewEnded, map[string]interface{}{
			"session_id": sessionID,
			"status":     s.Status,
			"summary":    summary,
		})
		return nil
	})
	return summary, err
}

func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	return o.sessions.Load(ctx, sessionID)
}

// RequestHint serves a hint for the pending question without touching scores.
func (o *Orchestrator) RequestHint(ctx context.Context, sessionID string) (string, error) {
	var hint string
	err := o.boxes.do(ctx, sessionID, func() error {
		s, err := o.sessions.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status.Terminal() {
			return apperr.Newf(apperr.KindGone, "session %s is %s", s.ID, s.Status)
		}
		if s.CurrentQuestion == nil {
			return apperr.Newf(apperr.KindPrecondition, "session %s has no pending question", s.ID)
		}

		hint = s.CurrentQuestion.Hint
		if hint == "" && o.hinter != nil {
			if h, err := o.hinter.Hint(ctx, s.CurrentQuestion.Text, s.CurrentQuestion.Topic, o.cfg.HintTimeout); err == nil {
				hint = h
			} else {
				o.log.Sugar().Warnw("hint phrasing degraded", "session_id", s.ID, "err", err)
			}
		}
		if hint == "" {
			hint = "Break the problem into smaller steps and talk through each one out loud."
		}
		s.CurrentHints++
		return o.persist(ctx, s)
	})
	return hint, err
}

func (o *Orchestrator) mutate(ctx context.Context, sessionID string, fn func(*model.Session) error) error {
	return o.boxes.do(ctx, sessionID, func() error {
		s, err := o.sessions.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		return o.persist(ctx, s)
	})
}

// persist saves with the optimistic version, retrying a conflict by
// re-reading the stored version. Within one process the mailbox already
// serializes writers, so retries only fire on cross-instance races.
func (o *Orchestrator) persist(ctx context.Context, s *model.Session) error {
	err := retry.Do(
		func() error {
			return o.sessions.Save(ctx, s)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return apperr.KindOf(err) == apperr.KindConflict
		}),
		retry.OnRetry(func(_ uint, err error) {
			if cur, loadErr := o.sessions.Load(ctx, s.ID); loadErr == nil {
				s.Version = cur.Version
			}
			o.log.Sugar().Warnw("session write conflict, retrying", "session_id", s.ID, "err", err)
		}),
	)
	if err != nil && apperr.KindOf(err) == apperr.KindConflict {
		return apperr.Wrap(apperr.KindConflict, "session write kept conflicting", err)
	}
	return err
}

func (o *Orchestrator) emit(sessionID, event string, payload interface{}) {
	if o.events != nil {
		o.events.Emit(sessionID, event, payload)
	}
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// IsRetryable reports whether the caller may simply retry the operation.
func IsRetryable(err error) bool {
	var ae *apperr.Error
	return errors.As(err, &ae) && ae.Kind == apperr.KindConflict
}
