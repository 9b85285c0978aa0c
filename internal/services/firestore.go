package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	todoCollection    = "todoitems"
	counterCollection = "counters"
)

// FirestoreService stores items as documents keyed by their decimal id.
// Ids come from a counter document updated in the same transaction as the
// insert.
type FirestoreService struct {
	client *firestore.Client
}

func NewFirestoreService(ctx context.Context, projectID string) (*FirestoreService, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %v", err)
	}

	return &FirestoreService{
		client: client,
	}, nil
}

func (fs *FirestoreService) Close() error {
	return fs.client.Close()
}

func (fs *FirestoreService) doc(id int) *firestore.DocumentRef {
	return fs.client.Collection(todoCollection).Doc(strconv.Itoa(id))
}

func (fs *FirestoreService) Create(ctx context.Context, item *TodoItem) (*TodoItem, error) {
	counter := fs.client.Collection(counterCollection).Doc(todoCollection)
	var created *TodoItem

	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var next int64 = 1
		snap, err := tx.Get(counter)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			last, err := snap.DataAt("last")
			if err != nil {
				return err
			}
			n, ok := last.(int64)
			if !ok {
				return fmt.Errorf("unexpected counter value %T", last)
			}
			next = n + 1
		}

		created = &TodoItem{
			ID:         int(next),
			Name:       item.Name,
			IsComplete: item.IsComplete,
		}
		if err := tx.Set(counter, map[string]interface{}{"last": next}); err != nil {
			return err
		}
		return tx.Create(fs.doc(created.ID), created)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return created, nil
}

func (fs *FirestoreService) Find(ctx context.Context, id int) (*TodoItem, error) {
	snap, err := fs.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo %d: %w", id, err)
	}

	var item TodoItem
	if err := snap.DataTo(&item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal todo: %w", err)
	}

	return &item, nil
}

func (fs *FirestoreService) Update(ctx context.Context, item *TodoItem) error {
	_, err := fs.doc(item.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: item.Name},
		{Path: "isComplete", Value: item.IsComplete},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update todo %d: %w", item.ID, err)
	}

	return nil
}

func (fs *FirestoreService) Delete(ctx context.Context, id int) error {
	_, err := fs.doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}

	return nil
}

func (fs *FirestoreService) List(ctx context.Context) ([]*TodoItem, error) {
	return fs.collect(fs.client.Collection(todoCollection).
		OrderBy("id", firestore.Asc).
		Documents(ctx))
}

// ListCompleted sorts in memory so the query needs no composite index.
func (fs *FirestoreService) ListCompleted(ctx context.Context) ([]*TodoItem, error) {
	todos, err := fs.collect(fs.client.Collection(todoCollection).
		Where("isComplete", "==", true).
		Documents(ctx))
	if err != nil {
		return nil, err
	}

	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

func (fs *FirestoreService) collect(iter *firestore.DocumentIterator) ([]*TodoItem, error) {
	defer iter.Stop()

	todos := []*TodoItem{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate todos: %w", err)
		}

		var todo TodoItem
		if err := doc.DataTo(&todo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal todo: %w", err)
		}

		todos = append(todos, &todo)
	}

	return todos, nil
}
