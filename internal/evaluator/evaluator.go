// Package evaluator scores one answer on the five rubric metrics. Scoring is
// rule-only and deterministic; the LLM is used solely to re-phrase feedback
// and can never move a score.
package evaluator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/internal/groq"
	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
	"go.uber.org/zap"
)

const codingTestWeight = 0.7

// metric weights of the final score
const (
	wCorrectness = 0.30
	wDepth       = 0.25
	wRelevance   = 0.20
	wClarity     = 0.15
	wStructure   = 0.10
)

// FeedbackPhraser is the optional LLM enrichment boundary.
type FeedbackPhraser interface {
	PhraseFeedback(ctx context.Context, question, answer string, strengths, weaknesses []string, timeout time.Duration) (*groq.PhrasedFeedback, error)
}

type Evaluator struct {
	ont     *ontology.Ontology
	phraser FeedbackPhraser
	timeout time.Duration
	log     *zap.Logger
}

// Input is everything the rubric sees for one turn.
type Input struct {
	Question      model.Question
	Answer        model.Answer
	InterviewType model.InterviewType
	// TestPassFrac is the hidden-test pass fraction for coding answers;
	// HasTests gates whether it participates in correctness.
	TestPassFrac float64
	HasTests     bool
}

// Result carries the evaluation plus the gaps the rubric found on this turn.
type Result struct {
	Evaluation    model.Evaluation
	CandidateGaps []model.Gap
}

func New(ont *ontology.Ontology, phraser FeedbackPhraser, enrichTimeout time.Duration, log *zap.Logger) *Evaluator {
	return &Evaluator{ont: ont, phraser: phraser, timeout: enrichTimeout, log: log}
}

// Evaluate never fails on well-formed input. An empty answer short-circuits
// to score 0 / weak / too-brief.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) Result {
	answer := strings.TrimSpace(in.Answer.Text)
	if answer == "" {
		return Result{Evaluation: model.Evaluation{
			Score:   0,
			Metrics: zeroMetrics(),
			Verdict: model.VerdictWeak,
			Feedback: model.Feedback{
				Weaknesses:  []string{"no answer given"},
				Suggestions: []string{"attempt every question, even partially"},
			},
			MatchedConcepts: []string{},
			MissingConcepts: normalizeAll(e.ont, in.Question.ExpectedConcepts),
			Flags:           []string{model.FlagTooBrief},
		}}
	}

	matched, missing := e.conceptMatch(answer, in.Question.ExpectedConcepts)
	conceptFrac := 0.0
	if total := len(matched) + len(missing); total > 0 {
		conceptFrac = float64(len(matched)) / float64(total)
	}

	var flags []string
	if len(answer) < 50 {
		flags = append(flags, model.FlagTooBrief)
	}

	relevance, offTopic := relevanceSignal(answer, in.Question.Topic, in.Question.SkillProbed, conceptFrac)
	if offTopic {
		flags = append(flags, model.FlagOffTopic)
	}

	depth, hasExample := depthSignal(answer)
	if !hasExample && len(answer) >= 50 {
		flags = append(flags, model.FlagNoExamples)
	}

	correctness, contradictions := correctnessSignal(answer, len(matched), len(missing), in.TestPassFrac, in.HasTests)
	if contradictions >= 2 && len(missing) > 0 {
		flags = append(flags, model.FlagHallucinated)
	}
	clarity := claritySignal(answer)
	structure := structureSignal(answer)

	if in.InterviewType == model.InterviewCoding && !containsAny(strings.ToLower(answer), complexityCues) {
		flags = append(flags, model.FlagNoComplexity)
	}

	metrics := map[string]int{
		model.MetricRelevance:   relevance,
		model.MetricDepth:       depth,
		model.MetricCorrectness: correctness,
		model.MetricClarity:     clarity,
		model.MetricStructure:   structure,
	}

	score := int(math.Round(
		wCorrectness*float64(correctness) +
			wDepth*float64(depth) +
			wRelevance*float64(relevance) +
			wClarity*float64(clarity) +
			wStructure*float64(structure)))

	eval := model.Evaluation{
		Score:           score,
		Metrics:         metrics,
		Verdict:         verdictFor(score),
		Feedback:        e.ruleFeedback(metrics, flags, missing),
		MatchedConcepts: matched,
		MissingConcepts: missing,
		Flags:           flags,
	}

	e.enrich(ctx, in, &eval)

	return Result{
		Evaluation:    eval,
		CandidateGaps: e.gapsFor(in.Question, eval),
	}
}

func verdictFor(score int) model.Verdict {
	switch {
	case score >= 80:
		return model.VerdictStrong
	case score >= 65:
		return model.VerdictAdequate
	case score >= 45:
		return model.VerdictBorderline
	}
	return model.VerdictWeak
}

// gapsFor turns high-severity missing concepts into knowledge gaps. Severity
// tracks how badly correctness suffered.
func (e *Evaluator) gapsFor(q model.Question, eval model.Evaluation) []model.Gap {
	if len(eval.MissingConcepts) == 0 {
		return nil
	}
	var sev model.GapSeverity
	switch {
	case eval.Metrics[model.MetricCorrectness] < 30:
		sev = model.SeverityCritical
	case eval.Metrics[model.MetricCorrectness] < 45:
		sev = model.SeverityHigh
	case eval.Metrics[model.MetricCorrectness] < 65:
		sev = model.SeverityMedium
	default:
		sev = model.SeverityLow
	}
	if sev != model.SeverityHigh && sev != model.SeverityCritical {
		return nil
	}
	gaps := make([]model.Gap, 0, len(eval.MissingConcepts))
	for _, c := range eval.MissingConcepts {
		gaps = append(gaps, model.Gap{
			Skill:    c,
			Type:     model.GapKnowledge,
			Severity: sev,
		})
	}
	return gaps
}

func (e *Evaluator) ruleFeedback(metrics map[string]int, flags, missing []string) model.Feedback {
	fb := model.Feedback{}
	labels := map[string]string{
		model.MetricRelevance:   "stayed on topic",
		model.MetricDepth:       "went into real depth",
		model.MetricCorrectness: "covered the key concepts",
		model.MetricClarity:     "explained clearly",
		model.MetricStructure:   "structured the answer well",
	}
	weakLabels := map[string]string{
		model.MetricRelevance:   "answer drifted from the question",
		model.MetricDepth:       "answer stayed at the surface",
		model.MetricCorrectness: "key concepts were missing",
		model.MetricClarity:     "hard to follow in places",
		model.MetricStructure:   "no clear ordering to the answer",
	}
	for _, m := range model.MetricNames {
		if metrics[m] >= 75 {
			fb.Strengths = append(fb.Strengths, labels[m])
		} else if metrics[m] <= 45 {
			fb.Weaknesses = append(fb.Weaknesses, weakLabels[m])
		}
	}
	for _, f := range flags {
		switch f {
		case model.FlagTooBrief:
			fb.Suggestions = append(fb.Suggestions, "expand the answer; aim for a few sentences per point")
		case model.FlagNoExamples:
			fb.Suggestions = append(fb.Suggestions, "ground the answer with a concrete example")
		case model.FlagNoComplexity:
			fb.Suggestions = append(fb.Suggestions, "state the time and space complexity")
		case model.FlagOffTopic:
			fb.Suggestions = append(fb.Suggestions, "restate the question before answering to stay on track")
		case model.FlagHallucinated:
			fb.Suggestions = append(fb.Suggestions, "avoid sweeping claims about what is never needed; interviewers probe them")
		}
	}
	if len(missing) > 0 {
		fb.Suggestions = append(fb.Suggestions, fmt.Sprintf("review: %s", strings.Join(missing, ", ")))
	}
	return fb
}

// enrich swaps in LLM-phrased feedback when available. Any failure leaves
// the rule-derived feedback in place and flags the turn.
func (e *Evaluator) enrich(ctx context.Context, in Input, eval *model.Evaluation) {
	if e.phraser == nil {
		return
	}
	phrased, err := e.phraser.PhraseFeedback(ctx, in.Question.Text, in.Answer.Text,
		eval.Feedback.Strengths, eval.Feedback.Weaknesses, e.timeout)
	if err != nil {
		if e.log != nil {
			e.log.Sugar().Warnw("feedback enrichment degraded", "err", err)
		}
		eval.Flags = append(eval.Flags, model.FlagLLMUnavailable)
		return
	}
	if len(phrased.Strengths) > 0 {
		eval.Feedback.Strengths = phrased.Strengths
	}
	if len(phrased.Weaknesses) > 0 {
		eval.Feedback.Weaknesses = phrased.Weaknesses
	}
	if len(phrased.Suggestions) > 0 {
		eval.Feedback.Suggestions = phrased.Suggestions
	}
}

func zeroMetrics() map[string]int {
	m := make(map[string]int, len(model.MetricNames))
	for _, name := range model.MetricNames {
		m[name] = 0
	}
	return m
}

func normalizeAll(ont *ontology.Ontology, skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		out = append(out, ont.Normalize(s))
	}
	return out
}
