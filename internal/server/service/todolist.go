package service

import (
	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/internal/server/serializer"
	"github.com/pkg/errors"
)

type (
	// A TodoListService handles the todolists.
	TodoListService interface {
		Find(id int64) (*model.TodoList, error)
		List(creator string) (Render, error)
		Create(creator string, params TodoListParams) (Render, error)
		Show(list *model.TodoList) (Render, error)
		Update(list *model.TodoList, params TodoListParams) (Render, error)
		Delete(list *model.TodoList) error
	}

	// TodoListParams are used to create or update a todolist.
	TodoListParams struct {
		Title string `json:"title"`
	}

	todolistService struct {
		db   database.Client
		base string
	}
)

// NewTodoList returns a new TodoListService.
func NewTodoList(db database.Client, base string) TodoListService {
	return &todolistService{
		db:   db,
		base: base,
	}
}

func (s *todolistService) Find(id int64) (*model.TodoList, error) {
	list, err := s.db.FindTodoList(id)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, apierror.NotFound("No such todolist.")
		}
		return nil, errors.Wrap(err, "could not get todolist")
	}
	return list, nil
}

func (s *todolistService) List(creator string) (Render, error) {
	lists, err := s.db.FindTodoListsByCreator(creator)
	if err != nil {
		return nil, err
	}

	renders := make([]Render, len(lists))
	for i, list := range lists {
		if renders[i], err = s.Show(list); err != nil {
			return nil, err
		}
	}
	return M{"todolists": renders}, nil
}

func (s *todolistService) Create(creator string, params TodoListParams) (Render, error) {
	list, err := model.NewTodoList(params.Title, creator)
	if err != nil {
		return nil, err
	}

	if err = s.db.Save(list); err != nil {
		return nil, errors.Wrap(err, "could not persist todolist")
	}
	return s.Show(list)
}

func (s *todolistService) Show(list *model.TodoList) (Render, error) {
	var counts serializer.Counts
	var err error

	if counts.Total, err = list.TodoCount(s.db); err != nil {
		return nil, err
	}
	if counts.Open, err = list.OpenCount(s.db); err != nil {
		return nil, err
	}
	if counts.Finished, err = list.FinishedCount(s.db); err != nil {
		return nil, err
	}

	return serializer.TodoList(list, counts, s.base), nil
}

func (s *todolistService) Update(list *model.TodoList, params TodoListParams) (Render, error) {
	if err := list.SetTitle(params.Title); err != nil {
		return nil, err
	}

	if err := s.db.Save(list); err != nil {
		return nil, errors.Wrap(err, "could not persist todolist")
	}
	return s.Show(list)
}

func (s *todolistService) Delete(list *model.TodoList) error {
	return errors.Wrap(s.db.DeleteTodoList(list), "could not delete todolist")
}
