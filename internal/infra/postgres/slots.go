package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"

	"quiz-bot-service/internal/domain"
)

func (s *Store) Slots(ctx context.Context, activeOnly bool) ([]domain.Slot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT slot_id, slot_name, hour, minute, is_active
		FROM slots_config
		WHERE NOT $1 OR is_active
		ORDER BY slot_id ASC`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var slot domain.Slot
		if err := rows.Scan(&slot.ID, &slot.Name, &slot.Hour, &slot.Minute, &slot.Active); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *Store) SlotByName(ctx context.Context, name string) (*domain.Slot, error) {
	var slot domain.Slot
	err := s.pool.QueryRow(ctx, `
		SELECT slot_id, slot_name, hour, minute, is_active
		FROM slots_config WHERE slot_name = $1`, strings.ToLower(name),
	).Scan(&slot.ID, &slot.Name, &slot.Hour, &slot.Minute, &slot.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %q: %w", name, err)
	}
	return &slot, nil
}

func (s *Store) CreateSlot(ctx context.Context, slot *domain.Slot) (int64, error) {
	slot.Name = strings.ToLower(slot.Name)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO slots_config (slot_name, hour, minute, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING slot_id`,
		slot.Name, slot.Hour, slot.Minute, slot.Active,
	).Scan(&slot.ID)
	if isUniqueViolation(err) {
		return 0, domain.ErrSlotExists
	}
	if err != nil {
		return 0, fmt.Errorf("insert slot: %w", err)
	}
	return slot.ID, nil
}

func (s *Store) UpdateSlot(ctx context.Context, slot *domain.Slot) error {
	slot.Name = strings.ToLower(slot.Name)
	tag, err := s.pool.Exec(ctx, `
		UPDATE slots_config SET hour = $1, minute = $2, is_active = $3
		WHERE slot_name = $4`,
		slot.Hour, slot.Minute, slot.Active, slot.Name)
	if err != nil {
		return fmt.Errorf("update slot %q: %w", slot.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSlotNotFound
	}
	return nil
}

// DeleteSlot refuses to remove the last active slot. The count check and the
// delete run in one transaction so concurrent deletes cannot race past the
// guard.
func (s *Store) DeleteSlot(ctx context.Context, name string) error {
	name = strings.ToLower(name)
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete slot: %w", err)
	}
	defer tx.Rollback(ctx)

	var active bool
	err = tx.QueryRow(ctx, `
		SELECT is_active FROM slots_config WHERE slot_name = $1 FOR UPDATE`, name,
	).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrSlotNotFound
	}
	if err != nil {
		return fmt.Errorf("load slot %q: %w", name, err)
	}

	if active {
		var activeCount int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM slots_config WHERE is_active`,
		).Scan(&activeCount); err != nil {
			return fmt.Errorf("count active slots: %w", err)
		}
		if activeCount <= 1 {
			return domain.ErrLastActiveSlot
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM slots_config WHERE slot_name = $1`, name); err != nil {
		return fmt.Errorf("delete slot %q: %w", name, err)
	}
	return tx.Commit(ctx)
}
