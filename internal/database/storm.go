package database

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/pkg/errors"
)

type strm struct {
	db *storm.DB
}

// StormModels are all the models stored by Storm.
var StormModels = []any{
	&model.User{},
	&model.Session{},
	&model.TodoList{},
	&model.Todo{},
}

// StormInit initializes Storm database.
func StormInit(database, codec string) error {
	db, err := stormOpen(database, codec)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, m := range StormModels {
		if err := db.Init(m); err != nil {
			return errors.Wrapf(err, "could not init %T index", m)
		}
	}
	return nil
}

// StormReIndex reindex Storm database.
func StormReIndex(database, codec string) error {
	db, err := stormOpen(database, codec)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, m := range StormModels {
		if err := db.ReIndex(m); err != nil {
			return errors.Wrapf(err, "could not ReIndex %T", m)
		}
	}
	return nil
}

// StormOpen returns a new Storm database connection.
func StormOpen(database, codec string) (Client, error) {
	db, err := stormOpen(database, codec)
	if err != nil {
		return nil, err
	}

	return &strm{
		db: db,
	}, nil
}

func stormOpen(database, codec string) (*storm.DB, error) {
	c, err := Codec(codec)
	if err != nil {
		return nil, err
	}

	db, err := storm.Open(database, storm.Codec(c))
	return db, errors.Wrap(err, "could not get database connection")
}

// Save inserts or updates the entry in database with the given model.
func (c *strm) Save(m model.Model) error {
	stamp(m)

	isnew := m.GetID() == 0
	if err := c.db.Save(m); err != nil {
		if isnew {
			// The transaction is rolled back, the incremented ID is not.
			m.SetID(0)
		}
		return errors.Wrap(err, "could not save the model")
	}
	return nil
}

// Delete deletes the entry in database with the given model.
func (c *strm) Delete(m model.Model) error {
	return errors.Wrap(c.db.DeleteStruct(m), "could not delete the model")
}

// Close the database.
func (c *strm) Close() error {
	return c.db.Close()
}

// IsNotFound returns true if err is nil or a not found error.
func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

// IsAlreadyExists returns true if err is a uniqueness violation error.
func (c *strm) IsAlreadyExists(err error) bool {
	return errors.Cause(err) == storm.ErrAlreadyExists
}

// FindUser returns the user for the given id.
func (c *strm) FindUser(id int64) (*model.User, error) {
	var user model.User
	if err := c.db.One("ID", id, &user); err != nil {
		return nil, errors.Wrap(err, "find user by id")
	}
	return &user, nil
}

// FindUserByUsername returns the user for the given username.
func (c *strm) FindUserByUsername(username string) (*model.User, error) {
	var user model.User
	if err := c.db.One("Username", username, &user); err != nil {
		return nil, errors.Wrap(err, "find user by username")
	}
	return &user, nil
}

// FindUserByEmail returns the user for the given email.
func (c *strm) FindUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := c.db.One("Email", email, &user); err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return &user, nil
}

// FindUsers returns all the users ordered by username.
func (c *strm) FindUsers() ([]*model.User, error) {
	users := make([]*model.User, 0)
	err := c.db.Select().OrderBy("Username").Find(&users)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find users")
	}
	return users, nil
}

// FindSession returns the session for the given id.
func (c *strm) FindSession(id int64) (*model.Session, error) {
	var session model.Session
	if err := c.db.One("ID", id, &session); err != nil {
		return nil, errors.Wrap(err, "find session by id")
	}
	return &session, nil
}

// FindSessionByAccessToken returns the session for the given id and access token.
func (c *strm) FindSessionByAccessToken(id int64, token string) (*model.Session, error) {
	var session model.Session
	err := c.db.Select(q.Eq("ID", id), q.Eq("AccessToken", token)).First(&session)
	if err != nil {
		return nil, errors.Wrap(err, "find session by access token")
	}
	return &session, nil
}

// FindSessionsByUserID returns all the sessions for the given user id.
func (c *strm) FindSessionsByUserID(userID int64) ([]*model.Session, error) {
	sessions := make([]*model.Session, 0)
	err := c.db.Select(q.Eq("UserID", userID)).OrderBy("ID").Find(&sessions)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find sessions by user id")
	}
	return sessions, nil
}

// RevokeExpiredSessions removes from database all expired sessions.
func (c *strm) RevokeExpiredSessions() error {
	err := c.db.Select(q.Lte("ExpireAt", time.Now())).Delete(&model.Session{})
	if err != nil && !c.IsNotFound(err) {
		return errors.Wrap(err, "could not revoke expired sessions")
	}
	return nil
}

// FindTodoList returns the todolist for the given id.
func (c *strm) FindTodoList(id int64) (*model.TodoList, error) {
	var list model.TodoList
	if err := c.db.One("ID", id, &list); err != nil {
		return nil, errors.Wrap(err, "find todolist by id")
	}
	return &list, nil
}

// FindTodoListsByCreator returns the todolists of the given username.
func (c *strm) FindTodoListsByCreator(username string) ([]*model.TodoList, error) {
	lists := make([]*model.TodoList, 0)
	err := c.db.Select(q.Eq("Creator", username)).OrderBy("ID").Find(&lists)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find todolists by creator")
	}
	return lists, nil
}

// CountTodoListsByCreator returns the number of todolists of the given username.
func (c *strm) CountTodoListsByCreator(username string) (int, error) {
	n, err := c.db.Select(q.Eq("Creator", username)).Count(&model.TodoList{})
	if err != nil && !c.IsNotFound(err) {
		return 0, errors.Wrap(err, "could not count todolists by creator")
	}
	return n, nil
}

// DeleteTodoList deletes the given todolist and all its todos.
func (c *strm) DeleteTodoList(list *model.TodoList) error {
	tx, err := c.db.Begin(true)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback() // nolint:errcheck

	err = tx.Select(q.Eq("TodoListID", list.ID)).Delete(&model.Todo{})
	if err != nil && !c.IsNotFound(err) {
		return errors.Wrap(err, "could not delete todolist's todos")
	}

	if err = tx.DeleteStruct(list); err != nil {
		return errors.Wrap(err, "could not delete todolist")
	}

	return errors.Wrap(tx.Commit(), "could not commit todolist deletion")
}

// FindTodo returns the todo for the given id.
func (c *strm) FindTodo(id int64) (*model.Todo, error) {
	var todo model.Todo
	if err := c.db.One("ID", id, &todo); err != nil {
		return nil, errors.Wrap(err, "find todo by id")
	}
	return &todo, nil
}

// FindTodosByTodoList returns the todos of the given todolist in insertion order.
func (c *strm) FindTodosByTodoList(todolistID int64) ([]*model.Todo, error) {
	todos := make([]*model.Todo, 0)
	err := c.db.Select(q.Eq("TodoListID", todolistID)).OrderBy("ID").Find(&todos)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find todos by todolist")
	}
	return todos, nil
}

// CountTodos returns the number of todos of the given todolist.
func (c *strm) CountTodos(todolistID int64) (int, error) {
	n, err := c.db.Select(q.Eq("TodoListID", todolistID)).Count(&model.Todo{})
	if err != nil && !c.IsNotFound(err) {
		return 0, errors.Wrap(err, "could not count todos")
	}
	return n, nil
}

// CountTodosByStatus returns the number of finished or open todos of the given todolist.
func (c *strm) CountTodosByStatus(todolistID int64, finished bool) (int, error) {
	n, err := c.db.Select(q.Eq("TodoListID", todolistID), q.Eq("Finished", finished)).Count(&model.Todo{})
	if err != nil && !c.IsNotFound(err) {
		return 0, errors.Wrap(err, "could not count todos by status")
	}
	return n, nil
}
