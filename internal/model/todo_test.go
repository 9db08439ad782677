package model_test

import (
	"testing"
	"time"

	"github.com/mdouchement/todolist/internal/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSaver struct{}

func (failingSaver) Save(model.Model) error {
	return errors.New("database is closed")
}

func TestNewTodo(t *testing.T) {
	todo, err := model.NewTodo("buy milk", 1, "")
	require.NoError(t, err)

	assert.Equal(t, "buy milk", todo.Description)
	assert.Equal(t, int64(1), todo.TodoListID)
	assert.Equal(t, model.StatusOpen, todo.Status())
	assert.Nil(t, todo.FinishedAt)
	assert.NotNil(t, todo.CreatedAt)
	assert.Equal(t, "<open Todo: buy milk by None>", todo.String())

	_, err = model.NewTodo("buy milk", 0, "george")
	assert.True(t, model.IsValidationError(err))

	// The description is not validated.
	todo, err = model.NewTodo("", 1, "george")
	assert.NoError(t, err)
	assert.Equal(t, "<open Todo:  by george>", todo.String())
}

func TestTodo_FinishReopen(t *testing.T) {
	db := &saver{}
	todo, err := model.NewTodo("buy milk", 1, "george")
	require.NoError(t, err)

	require.NoError(t, todo.Finish(db))
	assert.Equal(t, model.StatusFinished, todo.Status())
	assert.True(t, todo.Finished)
	require.NotNil(t, todo.FinishedAt)
	first := *todo.FinishedAt

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, todo.Finish(db))
	assert.True(t, todo.FinishedAt.After(first), "finishing twice re-stamps the time")

	require.NoError(t, todo.Reopen(db))
	assert.Equal(t, model.StatusOpen, todo.Status())
	assert.False(t, todo.Finished)
	assert.Nil(t, todo.FinishedAt)

	require.NoError(t, todo.Reopen(db))
	assert.Len(t, db.saved, 4, "every transition is persisted")

	err = todo.Finish(failingSaver{})
	assert.EqualError(t, err, "could not finish todo: database is closed")
}

func TestTodo_Assign(t *testing.T) {
	todo := &model.Todo{}

	err := model.Assign(todo, map[string]any{
		"description": "2020-01-15T10:00:00Z",
		"todolist_id": float64(3),
		"creator":     "george",
		"is_finished": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "2020-01-15T10:00:00Z", todo.Description)
	assert.Equal(t, int64(3), todo.TodoListID)
	assert.Equal(t, "george", todo.Creator)
	assert.True(t, todo.Finished)
	assert.NotNil(t, todo.FinishedAt)

	err = model.Assign(todo, map[string]any{"is_finished": false})
	require.NoError(t, err)
	assert.Nil(t, todo.FinishedAt)

	err = model.Assign(todo, map[string]any{"finished_at": time.Now()})
	require.NoError(t, err)
	assert.True(t, todo.Finished)

	err = model.Assign(todo, map[string]any{"finished_at": nil})
	require.NoError(t, err)
	assert.False(t, todo.Finished)
	assert.Nil(t, todo.FinishedAt)

	err = model.Assign(todo, map[string]any{"todolist_id": 0})
	assert.True(t, model.IsValidationError(err))

	err = model.Assign(todo, map[string]any{"todolist_id": 1.5})
	assert.EqualError(t, err, "todolist_id must be an integer")
}

func TestTodo_Complete(t *testing.T) {
	todo := &model.Todo{}
	require.NoError(t, model.Assign(todo, map[string]any{"description": "milk"}))

	err := todo.Complete()
	assert.True(t, model.IsValidationError(err))
	assert.EqualError(t, err, "a todo must belong to a todolist")

	require.NoError(t, model.Assign(todo, map[string]any{"todolist_id": 3}))
	assert.NoError(t, todo.Complete())
}
