package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"quiz-bot-service/internal/domain"
)

func (s *Store) CreatePost(ctx context.Context, p *domain.QuizPost) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO quiz_posts (question_id, group_key, poll_id, posted_time)
		VALUES ($1, $2, $3, $4)
		RETURNING post_id`,
		p.QuestionID, p.GroupKey, p.PollID, p.PostedTime,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert quiz post: %w", err)
	}
	return nil
}

func (s *Store) PostByPollID(ctx context.Context, pollID string) (*domain.QuizPost, bool, error) {
	var p domain.QuizPost
	err := s.pool.QueryRow(ctx, `
		SELECT post_id, question_id, group_key, poll_id, posted_time
		FROM quiz_posts WHERE poll_id = $1`, pollID,
	).Scan(&p.ID, &p.QuestionID, &p.GroupKey, &p.PollID, &p.PostedTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load quiz post %q: %w", pollID, err)
	}
	return &p, true, nil
}
