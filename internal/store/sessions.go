package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

// Sessions is the typed wrapper the orchestrator persists through. The
// document version rides on Session.Version across save/load.
type Sessions struct {
	st Store
}

func NewSessions(st Store) *Sessions {
	return &Sessions{st: st}
}

func (r *Sessions) Load(ctx context.Context, id string) (*model.Session, error) {
	doc, version, err := r.st.Get(ctx, KindSession, id)
	if err != nil {
		return nil, err
	}
	var s model.Session
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	s.Version = version
	return &s, nil
}

// Save persists s using s.Version as the optimistic guard and updates it on
// success. A zero version inserts.
func (r *Sessions) Save(ctx context.Context, s *model.Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	newVersion, err := r.st.Put(ctx, KindSession, s.ID, doc, s.Version)
	if err != nil {
		return err
	}
	s.Version = newVersion
	return nil
}

// ActiveByStatus returns sessions currently in the given status; the idle
// sweeper scans these.
func (r *Sessions) ByStatus(ctx context.Context, status model.SessionStatus, limit int) ([]*model.Session, error) {
	docs, err := r.st.QueryIndex(ctx, KindSession, "status", string(status), limit)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Session, 0, len(docs))
	for _, doc := range docs {
		var s model.Session
		if err := json.Unmarshal(doc, &s); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		out = append(out, &s)
	}
	return out, nil
}

func (r *Sessions) SaveReadiness(ctx context.Context, rd *model.Readiness) error {
	doc, err := json.Marshal(rd)
	if err != nil {
		return fmt.Errorf("encode readiness %s: %w", rd.SessionID, err)
	}
	if _, err := r.st.Put(ctx, KindReadiness, rd.SessionID, doc, 0); err != nil {
		return err
	}
	return nil
}

func (r *Sessions) ReadinessByUser(ctx context.Context, userID string, limit int) ([]*model.Readiness, error) {
	docs, err := r.st.QueryIndex(ctx, KindReadiness, "user_id", userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Readiness, 0, len(docs))
	for _, doc := range docs {
		var rd model.Readiness
		if err := json.Unmarshal(doc, &rd); err != nil {
			return nil, fmt.Errorf("decode readiness: %w", err)
		}
		out = append(out, &rd)
	}
	return out, nil
}
