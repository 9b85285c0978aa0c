package models

// TodoItem is the persisted to-do entity. ID is assigned by the store on insert.
type TodoItem struct {
	ID         int     `gorm:"primaryKey;autoIncrement" firestore:"id"`
	Name       *string `firestore:"name"`
	IsComplete bool    `gorm:"not null;index" firestore:"isComplete"`
}

// TodoItemView is the wire representation of a TodoItem.
type TodoItemView struct {
	ID         int     `json:"id" example:"1"`
	Name       *string `json:"name" example:"wash car"`
	IsComplete bool    `json:"isComplete" example:"false"`
}

// NewTodoItemView projects an item to its wire form.
func NewTodoItemView(item *TodoItem) TodoItemView {
	view := TodoItemView{
		ID:         item.ID,
		IsComplete: item.IsComplete,
	}
	if item.Name != nil {
		name := *item.Name
		view.Name = &name
	}
	return view
}

// NewTodoItemViews projects a slice of items. The result is never nil.
func NewTodoItemViews(items []*TodoItem) []TodoItemView {
	views := make([]TodoItemView, 0, len(items))
	for _, item := range items {
		views = append(views, NewTodoItemView(item))
	}
	return views
}

// ToItem builds a new entity from the view, dropping the view's ID.
func (v TodoItemView) ToItem() *TodoItem {
	item := &TodoItem{IsComplete: v.IsComplete}
	if v.Name != nil {
		name := *v.Name
		item.Name = &name
	}
	return item
}
