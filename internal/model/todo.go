package model

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	// DescriptionMaxLength is the maximum length of a todo description.
	DescriptionMaxLength = 128

	// StatusOpen is the status of a todo not finished yet.
	StatusOpen = "open"
	// StatusFinished is the status of a finished todo.
	StatusFinished = "finished"
)

// A Todo represents a database record.
type Todo struct {
	Base `msgpack:",inline" storm:"inline"`

	Description string     `json:"description" msgpack:"description"`
	FinishedAt  *time.Time `json:"finished_at" msgpack:"finished_at"`
	Finished    bool       `json:"is_finished" msgpack:"is_finished" storm:"index"`
	Creator     string     `json:"creator"     msgpack:"creator"     storm:"index"`
	TodoListID  int64      `json:"todolist_id" msgpack:"todolist_id" storm:"index"`
}

var todoAttributes = map[string]string{
	"created_at":  "CreatedAt",
	"finished_at": "FinishedAt",
}

// NewTodo returns a new open todo belonging to the given todolist.
// The description is stored as is.
func NewTodo(description string, todolistID int64, creator string) (*Todo, error) {
	if todolistID <= 0 {
		return nil, invalid("todolist_id", fmt.Sprint(todolistID), "a todo must belong to a todolist")
	}

	return &Todo{
		Base:        Base{CreatedAt: now()},
		Description: description,
		Creator:     creator,
		TodoListID:  todolistID,
	}, nil
}

func (t *Todo) String() string {
	creator := t.Creator
	if creator == "" {
		creator = "None"
	}
	return fmt.Sprintf("<%s Todo: %s by %s>", t.Status(), t.Description, creator)
}

// Status returns the current status of the todo.
func (t *Todo) Status() string {
	if t.Finished {
		return StatusFinished
	}
	return StatusOpen
}

// Finish marks the todo as finished and saves it.
func (t *Todo) Finish(db Saver) error {
	t.Finished = true
	t.FinishedAt = now()
	return errors.Wrap(db.Save(t), "could not finish todo")
}

// Reopen marks the todo as open and saves it.
func (t *Todo) Reopen(db Saver) error {
	t.Finished = false
	t.FinishedAt = nil
	return errors.Wrap(db.Save(t), "could not reopen todo")
}

// Assign sets the given attribute.
func (t *Todo) Assign(attribute string, value any) error {
	switch attribute {
	case "description":
		v, err := stringValue(attribute, value)
		if err != nil {
			return err
		}
		t.Description = v
		return nil
	case "todolist_id":
		v, err := int64Value(attribute, value)
		if err != nil {
			return err
		}
		if v <= 0 {
			return invalid(attribute, fmt.Sprint(v), "a todo must belong to a todolist")
		}
		t.TodoListID = v
		return nil
	case "creator":
		if value == nil {
			t.Creator = ""
			return nil
		}
		v, err := stringValue(attribute, value)
		if err != nil {
			return err
		}
		t.Creator = v
		return nil
	case "is_finished":
		v, err := boolValue(attribute, value)
		if err != nil {
			return err
		}
		t.Finished = v
		switch {
		case !v:
			t.FinishedAt = nil
		case t.FinishedAt == nil:
			t.FinishedAt = now()
		}
		return nil
	case "finished_at":
		if err := assignField(t, todoAttributes, attribute, value); err != nil {
			return err
		}
		t.Finished = t.FinishedAt != nil
		return nil
	}

	return assignField(t, todoAttributes, attribute, value)
}

// Complete checks a todo built through Assign belongs to a todolist.
func (t *Todo) Complete() error {
	if t.TodoListID <= 0 {
		return invalid("todolist_id", fmt.Sprint(t.TodoListID), "a todo must belong to a todolist")
	}
	return nil
}
