package postgres

import (
	"context"
	"fmt"
	"time"

	"quiz-bot-service/internal/domain"
)

// AddResponse relies on the UNIQUE(user_id, question_id) constraint to keep
// the first answer. A violation means the user already answered.
func (s *Store) AddResponse(ctx context.Context, r *domain.Response) (bool, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO responses
			(user_id, username, question_id, selected_option, is_correct,
			 responded_at, time_taken_sec, week_number, date, group_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING response_id`,
		r.UserID, r.Username, r.QuestionID, string(r.Selected), r.Correct,
		r.RespondedAt, r.TimeTakenSec, r.WeekNumber, r.Date, r.GroupKey,
	).Scan(&r.ID)
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert response: %w", err)
	}
	return true, nil
}

func (s *Store) DailyLeaderboard(ctx context.Context, date time.Time, groupKey string, limit int) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard(ctx, `date = $1`, date, groupKey, limit)
}

func (s *Store) WeeklyLeaderboard(ctx context.Context, week int, groupKey string, limit int) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard(ctx, `week_number = $1`, week, groupKey, limit)
}

// leaderboard ranks by correct answers, ties broken by lowest total time.
func (s *Store) leaderboard(ctx context.Context, periodCond string, periodArg any, groupKey string, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, MAX(username),
		       COUNT(*) FILTER (WHERE is_correct) AS correct,
		       COALESCE(SUM(time_taken_sec), 0) AS total_time
		FROM responses
		WHERE `+periodCond+` AND ($2 = '' OR group_key = $2)
		GROUP BY user_id
		ORDER BY correct DESC, total_time ASC, user_id ASC
		LIMIT $3`, periodArg, groupKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Correct, &e.TotalTimeSec); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) DayReport(ctx context.Context, date time.Time) (domain.PeriodReport, error) {
	return s.periodReport(ctx, `date = $1`, date)
}

func (s *Store) WeekReport(ctx context.Context, week int) (domain.PeriodReport, error) {
	return s.periodReport(ctx, `week_number = $1`, week)
}

func (s *Store) periodReport(ctx context.Context, periodCond string, periodArg any) (domain.PeriodReport, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, MAX(username),
		       COUNT(*) FILTER (WHERE is_correct) AS correct,
		       COUNT(*) FILTER (WHERE NOT is_correct) AS wrong,
		       COALESCE(SUM(time_taken_sec), 0) AS total_time
		FROM responses
		WHERE `+periodCond+`
		GROUP BY user_id
		ORDER BY correct DESC, total_time ASC, user_id ASC`, periodArg)
	if err != nil {
		return domain.PeriodReport{}, fmt.Errorf("query report: %w", err)
	}
	defer rows.Close()

	var out domain.PeriodReport
	for rows.Next() {
		var row domain.UserReportRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.Correct, &row.Wrong, &row.TotalTimeSec); err != nil {
			return domain.PeriodReport{}, fmt.Errorf("scan report row: %w", err)
		}
		out.TotalCorrect += row.Correct
		out.TotalWrong += row.Wrong
		out.Users = append(out.Users, row)
	}
	return out, rows.Err()
}
