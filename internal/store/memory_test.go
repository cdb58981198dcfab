package store

import (
	"context"
	"testing"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

func TestMemoryVersioning(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v, err := m.Put(ctx, KindSession, "s1", []byte(`{"status":"active"}`), 0)
	if err != nil || v != 1 {
		t.Fatalf("insert: v=%d err=%v", v, err)
	}
	if _, err := m.Put(ctx, KindSession, "s1", []byte(`{}`), 0); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("double insert = %v, want conflict", err)
	}

	v, err = m.Put(ctx, KindSession, "s1", []byte(`{"status":"paused"}`), 1)
	if err != nil || v != 2 {
		t.Fatalf("update: v=%d err=%v", v, err)
	}
	if _, err := m.Put(ctx, KindSession, "s1", []byte(`{}`), 1); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("stale update = %v, want conflict", err)
	}

	doc, v, err := m.Get(ctx, KindSession, "s1")
	if err != nil || v != 2 || string(doc) != `{"status":"paused"}` {
		t.Errorf("get: doc=%s v=%d err=%v", doc, v, err)
	}

	if _, _, err := m.Get(ctx, KindSession, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("get missing = %v, want not-found", err)
	}
}

func TestMemoryQueryIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.Put(ctx, KindSession, "a", []byte(`{"status":"active","user_id":"u1"}`), 0)
	_, _ = m.Put(ctx, KindSession, "b", []byte(`{"status":"paused","user_id":"u1"}`), 0)
	_, _ = m.Put(ctx, KindSession, "c", []byte(`{"status":"active","user_id":"u2"}`), 0)

	docs, err := m.QueryIndex(ctx, KindSession, "status", "active", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("active docs = %d, want 2", len(docs))
	}
}

func TestSessionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSessions(NewMemory())

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s := &model.Session{
		ID:            "sess-1",
		UserID:        "u1",
		Status:        model.StatusActive,
		Difficulty:    model.DifficultyMedium,
		RollingScores: map[string]float64{"depth": 72.5},
		TopicsCovered: map[string]bool{"arrays": true},
		Turns: []model.Turn{{
			TurnNumber: 1,
			Question:   model.Question{Text: "q", Topic: "arrays", Difficulty: model.DifficultyMedium},
			Answer:     model.Answer{Text: "a", TimeSpentSec: 30},
			Evaluation: model.Evaluation{Score: 70, Verdict: model.VerdictAdequate},
			Decision:   model.DecisionNewTopic,
			Timestamp:  now,
		}},
		Config:    model.SessionConfig{PlannedQuestionCount: 5, InitialDifficulty: model.DifficultyMedium, MaxFollowUpsPerTopic: 2},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Version != 1 {
		t.Errorf("version after insert = %d, want 1", s.Version)
	}

	loaded, err := repo.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.UserID != s.UserID || loaded.Status != s.Status ||
		len(loaded.Turns) != 1 || loaded.Turns[0].Question.Text != "q" ||
		loaded.RollingScores["depth"] != 72.5 || !loaded.TopicsCovered["arrays"] {
		t.Errorf("loaded session differs: %+v", loaded)
	}
	if loaded.Version != 1 {
		t.Errorf("loaded version = %d, want 1", loaded.Version)
	}
}
