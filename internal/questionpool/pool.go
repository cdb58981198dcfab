// Package questionpool serves the candidate question pool. Reads go through
// a small in-process cache, then redis, then postgres. The interview core
// only reads; the importer writes.
package questionpool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
	"github.com/jackc/pgx/v5/pgxpool"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	localTTL = 2 * time.Minute
	redisTTL = 15 * time.Minute
)

type Service struct {
	db    *pgxpool.Pool
	redis *redis.Client
	local *gocache.Cache
	log   *zap.Logger
}

func New(db *pgxpool.Pool, rdb *redis.Client, log *zap.Logger) *Service {
	return &Service{
		db:    db,
		redis: rdb,
		local: gocache.New(localTTL, 5*time.Minute),
		log:   log,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS pool_questions (
	q_id              bigserial PRIMARY KEY,
	topic             text NOT NULL,
	skill             text NOT NULL,
	difficulty        text NOT NULL,
	interview_type    text NOT NULL,
	text              text NOT NULL UNIQUE,
	expected_concepts jsonb NOT NULL DEFAULT '[]',
	hint              text NOT NULL DEFAULT '',
	source            text NOT NULL DEFAULT '',
	created_at        timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS pool_questions_lookup_idx ON pool_questions (topic, difficulty, interview_type);
`

func (s *Service) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate pool_questions: %w", err)
	}
	return nil
}

func cacheKey(f model.PoolFilter) string {
	return fmt.Sprintf("pool:%s:%s:%s:%d", f.Topic, f.Difficulty, f.InterviewType, f.Limit)
}

// Find returns pool questions matching f, ordered by q_id so repeated calls
// with the same pool contents see the same ordering.
func (s *Service) Find(ctx context.Context, f model.PoolFilter) ([]model.PoolQuestion, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	key := cacheKey(f)

	if v, ok := s.local.Get(key); ok {
		return v.([]model.PoolQuestion), nil
	}
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var qs []model.PoolQuestion
			if json.Unmarshal(raw, &qs) == nil {
				s.local.Set(key, qs, gocache.DefaultExpiration)
				return qs, nil
			}
		}
	}

	qs, err := s.query(ctx, f)
	if err != nil {
		return nil, err
	}

	s.local.Set(key, qs, gocache.DefaultExpiration)
	if s.redis != nil {
		if raw, err := json.Marshal(qs); err == nil {
			if err := s.redis.Set(ctx, key, raw, redisTTL).Err(); err != nil && s.log != nil {
				s.log.Sugar().Warnw("pool cache write failed", "key", key, "err", err)
			}
		}
	}
	return qs, nil
}

func (s *Service) query(ctx context.Context, f model.PoolFilter) ([]model.PoolQuestion, error) {
	const q = `
SELECT q_id, topic, skill, difficulty, interview_type, text, expected_concepts, hint, source, created_at
FROM pool_questions
WHERE topic = $1 AND difficulty = $2 AND (interview_type = $3 OR interview_type = 'mixed')
ORDER BY q_id LIMIT $4`
	rows, err := s.db.Query(ctx, q, f.Topic, string(f.Difficulty), string(f.InterviewType), f.Limit)
	if err != nil {
		return nil, fmt.Errorf("query pool: %w", err)
	}
	defer rows.Close()

	out := make([]model.PoolQuestion, 0, f.Limit)
	for rows.Next() {
		var pq model.PoolQuestion
		var concepts []byte
		if err := rows.Scan(&pq.QID, &pq.Topic, &pq.Skill, &pq.Difficulty, &pq.InterviewType,
			&pq.Text, &concepts, &pq.Hint, &pq.Source, &pq.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pool question: %w", err)
		}
		if err := json.Unmarshal(concepts, &pq.ExpectedConcepts); err != nil {
			return nil, fmt.Errorf("decode concepts for q %d: %w", pq.QID, err)
		}
		out = append(out, pq)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

// Insert adds one question, ignoring duplicates by text.
func (s *Service) Insert(ctx context.Context, pq model.PoolQuestion) error {
	concepts, _ := json.Marshal(pq.ExpectedConcepts)
	const q = `
INSERT INTO pool_questions (topic, skill, difficulty, interview_type, text, expected_concepts, hint, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (text) DO NOTHING`
	if _, err := s.db.Exec(ctx, q, pq.Topic, pq.Skill, string(pq.Difficulty), string(pq.InterviewType),
		pq.Text, concepts, pq.Hint, pq.Source); err != nil {
		return fmt.Errorf("insert pool question: %w", err)
	}
	return nil
}
