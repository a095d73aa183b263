package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"

	"quiz-bot-service/internal/domain"
)

// AdminGate is the capability check guarding administrator-only operations.
type AdminGate struct {
	allowed map[int64]struct{}
}

func NewAdminGate(adminIDs []int64) *AdminGate {
	allowed := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		allowed[id] = struct{}{}
	}
	return &AdminGate{allowed: allowed}
}

// Authorize returns domain.ErrUnauthorized unless userID is on the allow-list.
func (g *AdminGate) Authorize(userID int64) error {
	if _, ok := g.allowed[userID]; !ok {
		return domain.ErrUnauthorized
	}
	return nil
}

// Refresher rebuilds live triggers from persisted slot configuration.
// Implemented by the scheduler.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// SlotService is the admin surface for slot configuration. Every mutation is
// validated at the boundary, gated on the admin allow-list, and followed by a
// scheduler refresh so trigger changes apply without a restart.
type SlotService struct {
	slots     SlotStore
	gate      *AdminGate
	refresher Refresher
}

func NewSlotService(slots SlotStore, gate *AdminGate, refresher Refresher) *SlotService {
	return &SlotService{slots: slots, gate: gate, refresher: refresher}
}

// List returns all configured slots, active and inactive.
func (s *SlotService) List(ctx context.Context) ([]domain.Slot, error) {
	return s.slots.Slots(ctx, false)
}

// Create adds a new active slot and refreshes the scheduler.
// Returns domain.ErrSlotExists when the name is taken.
func (s *SlotService) Create(ctx context.Context, actorID int64, name string, hour, minute int) (*domain.Slot, error) {
	if err := s.gate.Authorize(actorID); err != nil {
		return nil, err
	}
	name, err := normalizeSlotName(name)
	if err != nil {
		return nil, err
	}
	if err := validateSlotTime(hour, minute); err != nil {
		return nil, err
	}

	slot := &domain.Slot{Name: name, Hour: hour, Minute: minute, Active: true}
	id, err := s.slots.CreateSlot(ctx, slot)
	if err != nil {
		return nil, err
	}
	slot.ID = id
	s.refresh(ctx)
	return slot, nil
}

// Update changes an existing slot's time and refreshes the scheduler.
func (s *SlotService) Update(ctx context.Context, actorID int64, name string, hour, minute int) error {
	if err := s.gate.Authorize(actorID); err != nil {
		return err
	}
	name, err := normalizeSlotName(name)
	if err != nil {
		return err
	}
	if err := validateSlotTime(hour, minute); err != nil {
		return err
	}

	slot, err := s.slots.SlotByName(ctx, name)
	if err != nil {
		return err
	}
	if slot == nil {
		return domain.ErrSlotNotFound
	}
	slot.Hour = hour
	slot.Minute = minute
	if err := s.slots.UpdateSlot(ctx, slot); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// Delete removes a slot and refreshes the scheduler. Deleting the last
// active slot is rejected with domain.ErrLastActiveSlot and leaves the
// configuration untouched.
func (s *SlotService) Delete(ctx context.Context, actorID int64, name string) error {
	if err := s.gate.Authorize(actorID); err != nil {
		return err
	}
	name, err := normalizeSlotName(name)
	if err != nil {
		return err
	}
	if err := s.slots.DeleteSlot(ctx, name); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *SlotService) refresh(ctx context.Context) {
	if s.refresher == nil {
		return
	}
	if err := s.refresher.Refresh(ctx); err != nil {
		log.Printf("scheduler refresh after slot change: %v", err)
	}
}

// normalizeSlotName lowercases the name and rejects anything non-alphabetic.
func normalizeSlotName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", domain.ErrInvalidSlotName
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidSlotName, name)
		}
	}
	return name, nil
}

func validateSlotTime(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", domain.ErrInvalidSlotTime, hour, minute)
	}
	return nil
}
