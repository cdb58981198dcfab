package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

// Roadmaps stores generated roadmaps. IDs are content-derived, so saving the
// same roadmap twice is a no-op rather than a conflict.
type Roadmaps struct {
	st Store
}

func NewRoadmaps(st Store) *Roadmaps {
	return &Roadmaps{st: st}
}

func (r *Roadmaps) Save(ctx context.Context, rm *model.Roadmap) error {
	doc, err := json.Marshal(rm)
	if err != nil {
		return fmt.Errorf("encode roadmap %s: %w", rm.ID, err)
	}
	if _, err := r.st.Put(ctx, KindRoadmap, rm.ID, doc, 0); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil
		}
		return err
	}
	return nil
}

func (r *Roadmaps) Load(ctx context.Context, id string) (*model.Roadmap, error) {
	doc, _, err := r.st.Get(ctx, KindRoadmap, id)
	if err != nil {
		return nil, err
	}
	var rm model.Roadmap
	if err := json.Unmarshal(doc, &rm); err != nil {
		return nil, fmt.Errorf("decode roadmap %s: %w", id, err)
	}
	return &rm, nil
}

func (r *Roadmaps) ByUser(ctx context.Context, userID string, limit int) ([]*model.Roadmap, error) {
	docs, err := r.st.QueryIndex(ctx, KindRoadmap, "user_id", userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Roadmap, 0, len(docs))
	for _, doc := range docs {
		var rm model.Roadmap
		if err := json.Unmarshal(doc, &rm); err != nil {
			return nil, fmt.Errorf("decode roadmap: %w", err)
		}
		out = append(out, &rm)
	}
	return out, nil
}
