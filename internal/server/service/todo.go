package service

import (
	"fmt"

	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/internal/server/serializer"
	"github.com/pkg/errors"
)

type (
	// A TodoService handles the todos.
	TodoService interface {
		Find(id int64) (*model.Todo, error)
		List(list *model.TodoList) (Render, error)
		Create(list *model.TodoList, creator string, params TodoParams) (Render, error)
		Finish(todo *model.Todo) (Render, error)
		Reopen(todo *model.Todo) (Render, error)
		Delete(todo *model.Todo) error
	}

	// TodoParams are used to create a todo.
	TodoParams struct {
		Description string `json:"description"`
	}

	todoService struct {
		db database.Client
	}
)

// NewTodo returns a new TodoService.
func NewTodo(db database.Client) TodoService {
	return &todoService{
		db: db,
	}
}

func (s *todoService) Find(id int64) (*model.Todo, error) {
	todo, err := s.db.FindTodo(id)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, apierror.NotFound("No such todo.")
		}
		return nil, errors.Wrap(err, "could not get todo")
	}
	return todo, nil
}

func (s *todoService) List(list *model.TodoList) (Render, error) {
	todos, err := s.db.FindTodosByTodoList(list.ID)
	if err != nil {
		return nil, err
	}
	return M{"todos": serializer.Todos(todos)}, nil
}

func (s *todoService) Create(list *model.TodoList, creator string, params TodoParams) (Render, error) {
	if !model.CheckLength(params.Description, model.DescriptionMaxLength) {
		return nil, apierror.InvalidParameters(
			fmt.Sprintf("A description must be between 1 and %d characters.", model.DescriptionMaxLength),
		)
	}

	// The todolist may have been removed since it has been loaded.
	if _, err := s.db.FindTodoList(list.ID); err != nil {
		if s.db.IsNotFound(err) {
			return nil, apierror.NotFound("No such todolist.")
		}
		return nil, errors.Wrap(err, "could not get todolist")
	}

	todo, err := model.NewTodo(params.Description, list.ID, creator)
	if err != nil {
		return nil, err
	}

	if err = s.db.Save(todo); err != nil {
		return nil, errors.Wrap(err, "could not persist todo")
	}
	return serializer.Todo(todo), nil
}

func (s *todoService) Finish(todo *model.Todo) (Render, error) {
	if err := todo.Finish(s.db); err != nil {
		return nil, err
	}
	return serializer.Todo(todo), nil
}

func (s *todoService) Reopen(todo *model.Todo) (Render, error) {
	if err := todo.Reopen(s.db); err != nil {
		return nil, err
	}
	return serializer.Todo(todo), nil
}

func (s *todoService) Delete(todo *model.Todo) error {
	return errors.Wrap(s.db.Delete(todo), "could not delete todo")
}
