package domain

import "errors"

var (
	// ErrQuestionNotFound indicates the requested question ID does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionPosted rejects deleting a question that was already posted.
	ErrQuestionPosted = errors.New("question already posted")
	// ErrInvalidQuestion rejects malformed question input.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrSlotNotFound indicates the named slot is not configured.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrSlotExists is returned when creating a slot whose name is taken.
	ErrSlotExists = errors.New("slot already exists")
	// ErrLastActiveSlot rejects deleting the only remaining active slot.
	ErrLastActiveSlot = errors.New("cannot delete the last active slot")
	// ErrInvalidSlotName rejects non-alphabetic slot names.
	ErrInvalidSlotName = errors.New("slot name must be alphabetic")
	// ErrInvalidSlotTime rejects out-of-range hour or minute values.
	ErrInvalidSlotTime = errors.New("slot time out of range")
	// ErrUnauthorized is returned when a non-admin invokes an admin operation.
	ErrUnauthorized = errors.New("unauthorized")
)
