// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyExists      = errors.New("record already exists")
	ErrValidation         = errors.New("invalid input")
	ErrAlreadySent        = errors.New("campaign already sent")
	ErrDispatchInProgress = errors.New("campaign dispatch already in progress")
)

// NotFoundError names the missing entity, e.g. campaign "spring-sale".
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NewNotFound(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// NewCampaignNotFound is kept for call sites that only deal with campaigns.
func NewCampaignNotFound(name string) error {
	return NewNotFound("campaign", name)
}

type AlreadyExistsError struct {
	Entity string
	Key    string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

func NewAlreadyExists(entity, key string) error {
	return &AlreadyExistsError{Entity: entity, Key: key}
}

type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidation(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
