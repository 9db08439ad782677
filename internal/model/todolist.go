package model

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// TitleMaxLength is the maximum length of a todolist title.
	TitleMaxLength = 128
	// DefaultTitle is the title given to a todolist created without one.
	DefaultTitle = "untitled"
)

type (
	// A TodoList represents a database record.
	TodoList struct {
		Base `msgpack:",inline" storm:"inline"`

		Title string `json:"title"   msgpack:"title"`
		// Creator is the username of the owner, empty for an ownerless todolist.
		Creator string `json:"creator" msgpack:"creator" storm:"index"`
	}

	// A TodoCounter counts the todos of a todolist.
	TodoCounter interface {
		CountTodos(todolistID int64) (int, error)
		CountTodosByStatus(todolistID int64, finished bool) (int, error)
	}
)

var todolistAttributes = map[string]string{
	"created_at": "CreatedAt",
}

// NewTodoList returns a new todolist.
// An empty title is replaced by DefaultTitle.
func NewTodoList(title, creator string) (*TodoList, error) {
	if title == "" {
		title = DefaultTitle
	}

	list := &TodoList{
		Base:    Base{CreatedAt: now()},
		Creator: creator,
	}
	if err := list.SetTitle(title); err != nil {
		return nil, err
	}
	return list, nil
}

func (l *TodoList) String() string {
	return fmt.Sprintf("<TodoList: %s>", l.Title)
}

// SetTitle defines the title.
func (l *TodoList) SetTitle(title string) error {
	if !CheckLength(title, TitleMaxLength) {
		return invalid("title", title, "%s is not a valid title", title)
	}

	l.Title = title
	return nil
}

// HasCreator returns true when the todolist is owned by a user.
func (l *TodoList) HasCreator() bool {
	return l.Creator != ""
}

// TodoCount returns the number of todos in the todolist.
func (l *TodoList) TodoCount(c TodoCounter) (int, error) {
	return c.CountTodos(l.ID)
}

// FinishedCount returns the number of finished todos in the todolist.
func (l *TodoList) FinishedCount(c TodoCounter) (int, error) {
	return c.CountTodosByStatus(l.ID, true)
}

// OpenCount returns the number of open todos in the todolist.
func (l *TodoList) OpenCount(c TodoCounter) (int, error) {
	return c.CountTodosByStatus(l.ID, false)
}

// URL returns the API endpoint of the todolist.
func (l *TodoList) URL(base string) string {
	id := strconv.FormatInt(l.ID, 10)
	if l.HasCreator() {
		return base + "/api/users/" + url.PathEscape(l.Creator) + "/todolists/" + id
	}
	return base + "/api/todolists/" + id
}

// TodosURL returns the API endpoint of the todolist's todos.
func (l *TodoList) TodosURL(base string) string {
	return l.URL(base) + "/todos"
}

// Assign sets the given attribute.
func (l *TodoList) Assign(attribute string, value any) error {
	switch attribute {
	case "title":
		v, err := stringValue(attribute, value)
		if err != nil {
			return err
		}
		if v == "" {
			v = DefaultTitle
		}
		return l.SetTitle(v)
	case "creator":
		if value == nil {
			l.Creator = ""
			return nil
		}
		v, err := stringValue(attribute, value)
		if err != nil {
			return err
		}
		l.Creator = v
		return nil
	}

	return assignField(l, todolistAttributes, attribute, value)
}

// Complete fills the defaults of a todolist built through Assign.
func (l *TodoList) Complete() error {
	if l.Title == "" {
		l.Title = DefaultTitle
	}
	return nil
}
