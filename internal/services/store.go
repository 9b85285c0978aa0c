package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/ytakahashi/todo-api/internal/config"
	"github.com/ytakahashi/todo-api/internal/models"
)

type TodoItem = models.TodoItem

// ErrNotFound is returned when no item has the requested id.
var ErrNotFound = errors.New("todo item not found")

// TodoStore holds the to-do items. Implementations must be safe for
// concurrent use.
type TodoStore interface {
	// Create inserts item, assigning its ID.
	Create(ctx context.Context, item *TodoItem) (*TodoItem, error)
	// Find returns the item with id, or ErrNotFound.
	Find(ctx context.Context, id int) (*TodoItem, error)
	// Update overwrites the mutable fields of the item with item.ID, or returns ErrNotFound.
	Update(ctx context.Context, item *TodoItem) error
	// Delete removes the item with id, or returns ErrNotFound.
	Delete(ctx context.Context, id int) error
	// List returns every item in ascending id order.
	List(ctx context.Context) ([]*TodoItem, error)
	// ListCompleted returns the items with IsComplete set, in ascending id order.
	ListCompleted(ctx context.Context) ([]*TodoItem, error)
	Close() error
}

// NewTodoStore opens the store selected by cfg.Driver.
func NewTodoStore(ctx context.Context, cfg config.Store, log *logrus.Logger) (TodoStore, error) {
	switch cfg.Driver {
	case config.DriverFirestore:
		store, err := NewFirestoreService(ctx, cfg.Project)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite, config.DriverPostgres, config.DriverMySQL:
		store, err := NewGormStore(ctx, cfg.Driver, cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
}
