package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"quiz-bot-service/internal/domain"
)

const questionColumns = `question_id, question_text, image_file_id, image_local_path,
	option_a, option_b, option_c, option_d, correct_option, slot,
	week_number, date, scheduled_date, target_groups, is_posted, posted_time`

func (s *Store) AddQuestion(ctx context.Context, q *domain.Question) (int64, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO questions
			(question_text, image_file_id, image_local_path,
			 option_a, option_b, option_c, option_d, correct_option, slot,
			 week_number, date, scheduled_date, target_groups)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING question_id`,
		q.Text, q.ImageFileID, q.ImageLocalPath,
		q.Options[0], q.Options[1], q.Options[2], q.Options[3],
		string(q.CorrectOption), q.Slot,
		q.WeekNumber, q.Date, q.ScheduledDate, q.TargetGroups.Encode(),
	).Scan(&q.ID)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	return q.ID, nil
}

func (s *Store) QuestionByID(ctx context.Context, id int64) (*domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE question_id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", id, err)
	}
	return q, nil
}

// NextUnposted applies the selection policy in two steps: an unposted
// question scheduled for exactly today wins; otherwise strict FIFO by
// (date, id) over questions whose schedule floor has passed.
func (s *Store) NextUnposted(ctx context.Context, slot string, today time.Time) (*domain.Question, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE slot = $1 AND NOT is_posted AND scheduled_date = $2
		ORDER BY question_id ASC
		LIMIT 1`, slot, today)
	q, err := scanQuestion(row)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("select scheduled question: %w", err)
	}

	row = s.pool.QueryRow(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE slot = $1 AND NOT is_posted
		  AND (scheduled_date IS NULL OR scheduled_date <= $2)
		ORDER BY date ASC, question_id ASC
		LIMIT 1`, slot, today)
	q, err = scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select next question: %w", err)
	}
	return q, nil
}

func (s *Store) MarkPosted(ctx context.Context, id int64, postedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions SET is_posted = TRUE, posted_time = $1
		WHERE question_id = $2`, postedAt, id)
	if err != nil {
		return fmt.Errorf("mark question %d posted: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) SetImageFileID(ctx context.Context, id int64, fileID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions SET image_file_id = $1 WHERE question_id = $2`, fileID, id)
	if err != nil {
		return fmt.Errorf("set image file id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q *domain.Question) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions SET
			question_text = $1, image_file_id = $2, image_local_path = $3,
			option_a = $4, option_b = $5, option_c = $6, option_d = $7,
			correct_option = $8, slot = $9, scheduled_date = $10, target_groups = $11
		WHERE question_id = $12`,
		q.Text, q.ImageFileID, q.ImageLocalPath,
		q.Options[0], q.Options[1], q.Options[2], q.Options[3],
		string(q.CorrectOption), q.Slot, q.ScheduledDate, q.TargetGroups.Encode(),
		q.ID)
	if err != nil {
		return fmt.Errorf("update question %d: %w", q.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE question_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func scanQuestion(row pgx.Row) (*domain.Question, error) {
	var (
		q          domain.Question
		correct    string
		targetsRaw string
	)
	if err := row.Scan(
		&q.ID, &q.Text, &q.ImageFileID, &q.ImageLocalPath,
		&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
		&correct, &q.Slot, &q.WeekNumber, &q.Date, &q.ScheduledDate,
		&targetsRaw, &q.Posted, &q.PostedTime,
	); err != nil {
		return nil, err
	}
	q.CorrectOption = domain.OptionLetter(correct)
	targets, err := domain.ParseTargetGroups(targetsRaw)
	if err != nil {
		return nil, err
	}
	q.TargetGroups = targets
	return &q, nil
}
