// Package selector picks the next question for a session: follow-up or new
// topic, difficulty stepping, and termination. For a fixed pool, ontology
// version and evaluation history the choice is deterministic.
package selector

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/internal/groq"
	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
	"go.uber.org/zap"
)

const (
	stepUpThreshold   = 75.0
	stepDownThreshold = 45.0
	difficultyWindow  = 3
	strugglingCutoff  = 60
)

type DecisionKind string

const (
	KindNewTopic  DecisionKind = "new-topic"
	KindFollowUp  DecisionKind = "follow-up"
	KindTerminate DecisionKind = "terminate"
)

// Decision is the selector output. LLMDegraded marks that the question fell
// back to a canned template because generation was unavailable.
type Decision struct {
	Kind        DecisionKind
	Question    model.Question
	Difficulty  model.Difficulty
	LLMDegraded bool
}

// QuestionPool is the read-only candidate pool boundary.
type QuestionPool interface {
	Find(ctx context.Context, f model.PoolFilter) ([]model.PoolQuestion, error)
}

// Generator is the LLM fallback when the pool runs dry.
type Generator interface {
	GenerateQuestion(ctx context.Context, topic, skill, difficulty, interviewType, resumeExcerpt string, timeout time.Duration) (*groq.GeneratedQuestion, error)
}

type Selector struct {
	ont        *ontology.Ontology
	pool       QuestionPool
	gen        Generator
	genTimeout time.Duration
	log        *zap.Logger
}

func New(ont *ontology.Ontology, pool QuestionPool, gen Generator, genTimeout time.Duration, log *zap.Logger) *Selector {
	return &Selector{ont: ont, pool: pool, gen: gen, genTimeout: genTimeout, log: log}
}

// Next decides the next move for s. The session is read, never mutated;
// the orchestrator applies the decision.
func (sel *Selector) Next(ctx context.Context, s *model.Session, resumeExcerpt string) (Decision, error) {
	turns := len(s.Turns)

	// hard stop at 1.5x budget
	if turns >= int(math.Ceil(1.5*float64(s.Config.PlannedQuestionCount))) {
		return Decision{Kind: KindTerminate, Difficulty: s.Difficulty}, nil
	}
	if turns >= s.Config.PlannedQuestionCount && lastTwoSolid(s) {
		return Decision{Kind: KindTerminate, Difficulty: s.Difficulty}, nil
	}

	if last := s.LastTurn(); last != nil &&
		last.Evaluation.Verdict == model.VerdictBorderline &&
		s.FollowUpsOn(last.Question.Topic) < s.Config.MaxFollowUpsPerTopic {
		return sel.followUp(ctx, s, last, resumeExcerpt)
	}

	difficulty := nextDifficulty(s)

	topic, ok := sel.pickTopic(s)
	if !ok {
		// plan exhausted and nothing left to revisit
		return Decision{Kind: KindTerminate, Difficulty: difficulty}, nil
	}

	q, degraded, err := sel.retrieve(ctx, s, topic, difficulty, false, 0, resumeExcerpt)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Kind: KindNewTopic, Question: q, Difficulty: difficulty, LLMDegraded: degraded}, nil
}

func lastTwoSolid(s *model.Session) bool {
	n := len(s.Turns)
	if n < 2 {
		return false
	}
	for _, t := range s.Turns[n-2:] {
		v := t.Evaluation.Verdict
		if v != model.VerdictStrong && v != model.VerdictAdequate {
			return false
		}
	}
	return true
}

func (sel *Selector) followUp(ctx context.Context, s *model.Session, last *model.Turn, resumeExcerpt string) (Decision, error) {
	q, degraded, err := sel.retrieve(ctx, s, last.Question.Topic, last.Question.Difficulty, true, last.TurnNumber, resumeExcerpt)
	if err != nil {
		return Decision{}, err
	}
	q.SkillProbed = last.Question.SkillProbed
	return Decision{Kind: KindFollowUp, Question: q, Difficulty: last.Question.Difficulty, LLMDegraded: degraded}, nil
}

// nextDifficulty applies the rolling three-turn step rule.
func nextDifficulty(s *model.Session) model.Difficulty {
	if len(s.Turns) < difficultyWindow {
		return s.Difficulty
	}
	sum := 0
	for _, t := range s.Turns[len(s.Turns)-difficultyWindow:] {
		sum += t.Evaluation.Score
	}
	mean := float64(sum) / difficultyWindow
	switch {
	case mean >= stepUpThreshold:
		return s.Difficulty.StepUp()
	case mean <= stepDownThreshold:
		return s.Difficulty.StepDown()
	}
	return s.Difficulty
}

// pickTopic walks the plan in its stored order, which is highest gap severity
// first from session start. When the plan is exhausted a struggling topic not
// yet revisited may be retried once.
func (sel *Selector) pickTopic(s *model.Session) (string, bool) {
	for _, skill := range s.PlanSkills {
		if !s.TopicsCovered[skill] {
			return skill, true
		}
	}
	for _, t := range s.Turns {
		topic := t.Question.Topic
		if s.StrugglingAreas[topic] && !s.TopicsRevisited[topic] && lastScoreOn(s, topic) < strugglingCutoff {
			return topic, true
		}
	}
	return "", false
}

func lastScoreOn(s *model.Session, topic string) int {
	score := 0
	for _, t := range s.Turns {
		if t.Question.Topic == topic {
			score = t.Evaluation.Score
		}
	}
	return score
}

// retrieve tries the pool at the requested difficulty, then relaxed by one
// level, then the generator, then a canned template.
func (sel *Selector) retrieve(ctx context.Context, s *model.Session, topic string, difficulty model.Difficulty, followUp bool, parent int, resumeExcerpt string) (model.Question, bool, error) {
	asked := s.AskedTexts()
	skill := sel.ont.Normalize(topic)

	tryLevels := []model.Difficulty{difficulty}
	if up := difficulty.StepUp(); up != difficulty {
		tryLevels = append(tryLevels, up)
	}
	if down := difficulty.StepDown(); down != difficulty {
		tryLevels = append(tryLevels, down)
	}

	for _, level := range tryLevels {
		rows, err := sel.pool.Find(ctx, model.PoolFilter{
			Topic:         topic,
			Difficulty:    level,
			InterviewType: s.InterviewType,
			Limit:         20,
		})
		if err != nil {
			return model.Question{}, false, fmt.Errorf("query question pool: %w", err)
		}
		for _, row := range rows {
			if asked[row.Text] {
				continue
			}
			return model.Question{
				Text:             row.Text,
				Topic:            topic,
				SkillProbed:      row.Skill,
				Difficulty:       level,
				ExpectedConcepts: row.ExpectedConcepts,
				Hint:             row.Hint,
				IsFollowUp:       followUp,
				ParentTurnNumber: parent,
			}, false, nil
		}
	}

	if sel.gen != nil {
		gq, err := sel.gen.GenerateQuestion(ctx, topic, skill, string(difficulty), string(s.InterviewType), resumeExcerpt, sel.genTimeout)
		if err == nil {
			return model.Question{
				Text:             gq.Question,
				Topic:            topic,
				SkillProbed:      skill,
				Difficulty:       difficulty,
				ExpectedConcepts: gq.ExpectedConcepts,
				Hint:             gq.Hint,
				IsFollowUp:       followUp,
				ParentTurnNumber: parent,
				Generated:        true,
			}, false, nil
		}
		if sel.log != nil {
			sel.log.Sugar().Warnw("question generation degraded", "topic", topic, "err", err)
		}
	}

	return cannedQuestion(topic, skill, difficulty, followUp, parent), true, nil
}

// cannedQuestion is the last-resort template for (topic, skill, difficulty).
func cannedQuestion(topic, skill string, difficulty model.Difficulty, followUp bool, parent int) model.Question {
	var text string
	if followUp {
		text = fmt.Sprintf("Let's dig deeper into %s. Walk me through a harder case you would expect at %s difficulty, and explain your reasoning step by step.", topic, difficulty)
	} else {
		switch difficulty {
		case model.DifficultyEasy:
			text = fmt.Sprintf("Explain the fundamentals of %s and where you have used it.", topic)
		case model.DifficultyHard:
			text = fmt.Sprintf("Describe the hardest problem you have solved involving %s, including trade-offs you weighed and what you would do differently.", topic)
		default:
			text = fmt.Sprintf("Describe a practical problem involving %s and walk through how you would solve it.", topic)
		}
	}
	return model.Question{
		Text:             text,
		Topic:            topic,
		SkillProbed:      skill,
		Difficulty:       difficulty,
		ExpectedConcepts: []string{skill},
		IsFollowUp:       followUp,
		ParentTurnNumber: parent,
		Generated:        true,
	}
}
