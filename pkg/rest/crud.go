package rest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kelvi11/smart-warehouse/pkg/events"
)

// Create runs the resource's Validate hook, assigns a random id when the
// entity has none and inserts it.
func (e *Engine[T]) Create(ctx context.Context, entity *T) (*T, error) {
	if err := e.res.Validate(entity); err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.res.ID(entity)) == "" {
		e.res.SetID(entity, uuid.NewString())
	}

	err := e.store.InTx(ctx, func(ctx context.Context, tx Store[T]) error {
		return tx.Insert(ctx, entity)
	})
	if errors.Is(err, ErrConflict) {
		return nil, e.conflict(e.res.ID(entity), err)
	}
	if err != nil {
		e.logger.Error("insert failed", zap.String("id", e.res.ID(entity)), zap.Error(err))
		return nil, fmt.Errorf("insert %s: %w", e.res.Name(), err)
	}

	e.logger.Debug("created", zap.String("id", e.res.ID(entity)))
	e.publish(ctx, events.OpCreated, e.res.ID(entity), entity)
	return entity, nil
}

// Fetch returns the entity with id.
func (e *Engine[T]) Fetch(ctx context.Context, id string) (*T, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDMissing
	}

	entity, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, e.notFound(id, err)
	}
	return &entity, nil
}

// Update replaces the stored entity with id by entity. The id argument
// wins over whatever id the entity carries. A missing entity is an error.
func (e *Engine[T]) Update(ctx context.Context, id string, entity *T) (*T, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDMissing
	}
	e.res.SetID(entity, id)

	err := e.store.InTx(ctx, func(ctx context.Context, tx Store[T]) error {
		return tx.Replace(ctx, entity)
	})
	if errors.Is(err, ErrConflict) {
		return nil, e.conflict(id, err)
	}
	if err != nil {
		return nil, e.notFound(id, err)
	}

	e.logger.Debug("updated", zap.String("id", id))
	e.publish(ctx, events.OpUpdated, id, entity)
	return entity, nil
}

// Delete removes the entity with id.
func (e *Engine[T]) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrIDMissing
	}

	err := e.store.InTx(ctx, func(ctx context.Context, tx Store[T]) error {
		if _, err := tx.Get(ctx, id); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return e.notFound(id, err)
	}

	e.logger.Debug("deleted", zap.String("id", id))
	e.publish(ctx, events.OpDeleted, id, nil)
	return nil
}

// conflict names the clashing value: the unique field when the store
// reports one, the id otherwise.
func (e *Engine[T]) conflict(id string, err error) error {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return fmt.Errorf("%s with %s [%v] already exists: %w", e.humanName, strings.ToLower(Humanize(ce.Field)), ce.Value, err)
	}
	return fmt.Errorf("%s with id [%s] already exists: %w", e.humanName, id, err)
}

// notFound turns ErrNoRecord into a *NotFoundError and wraps anything else.
func (e *Engine[T]) notFound(id string, err error) error {
	if errors.Is(err, ErrNoRecord) {
		return &NotFoundError{Resource: e.humanName, ID: id}
	}
	e.logger.Error("storage failure", zap.String("id", id), zap.Error(err))
	return fmt.Errorf("%s %s: %w", e.res.Name(), id, err)
}

// publish sends a change event. The write is already committed, so a
// failure is only logged.
func (e *Engine[T]) publish(ctx context.Context, op events.Op, id string, entity *T) {
	var data any
	if entity != nil {
		data = entity
	}
	ev, err := events.New(e.topic(), op, id, data)
	if err == nil {
		err = e.publisher.Publish(ctx, ev)
	}
	if err != nil {
		e.logger.Warn("event publish failed", zap.String("op", string(op)), zap.String("id", id), zap.Error(err))
	}
}

// topic is the kebab-case resource name, e.g. "inventory-item".
func (e *Engine[T]) topic() string {
	return strings.ReplaceAll(strings.ToLower(e.humanName), " ", "-")
}
