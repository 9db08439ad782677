package database

import (
	"github.com/mdouchement/todolist/internal/model"
	"github.com/pkg/errors"
)

const (
	// DriverStorm is the embedded database driver.
	DriverStorm = "storm"
	// DriverPostgres is the PostgreSQL database driver.
	DriverPostgres = "postgres"
)

type (
	// A Client can interacts with the database.
	Client interface {
		// Save inserts or updates the entry in database with the given model.
		// A uniqueness violation rolls the write back and returns an error matched by IsAlreadyExists.
		Save(m model.Model) error
		// Delete deletes the entry in database with the given model.
		Delete(m model.Model) error
		// Close the database.
		Close() error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool
		// IsAlreadyExists returns true if err is a uniqueness violation error.
		IsAlreadyExists(err error) bool

		UserInteraction
		SessionInteraction
		TodoListInteraction
		TodoInteraction
	}

	// An UserInteraction defines all the methods used to interact with a user record.
	UserInteraction interface {
		// FindUser returns the user for the given id.
		FindUser(id int64) (*model.User, error)
		// FindUserByUsername returns the user for the given username.
		FindUserByUsername(username string) (*model.User, error)
		// FindUserByEmail returns the user for the given email.
		FindUserByEmail(email string) (*model.User, error)
		// FindUsers returns all the users ordered by username.
		FindUsers() ([]*model.User, error)
	}

	// An SessionInteraction defines all the methods used to interact with a session record.
	SessionInteraction interface {
		// FindSession returns the session for the given id.
		FindSession(id int64) (*model.Session, error)
		// FindSessionByAccessToken returns the session for the given id and access token.
		FindSessionByAccessToken(id int64, token string) (*model.Session, error)
		// FindSessionsByUserID returns all sessions for the given user id.
		FindSessionsByUserID(userID int64) ([]*model.Session, error)
		// RevokeExpiredSessions removes from database all expired sessions.
		RevokeExpiredSessions() error
	}

	// A TodoListInteraction defines all the methods used to interact with a todolist record(s).
	TodoListInteraction interface {
		// FindTodoList returns the todolist for the given id.
		FindTodoList(id int64) (*model.TodoList, error)
		// FindTodoListsByCreator returns the todolists of the given username.
		// An empty username returns the todolists without creator.
		FindTodoListsByCreator(username string) ([]*model.TodoList, error)
		// CountTodoListsByCreator returns the number of todolists of the given username.
		CountTodoListsByCreator(username string) (int, error)
		// DeleteTodoList deletes the given todolist and all its todos.
		DeleteTodoList(list *model.TodoList) error
	}

	// A TodoInteraction defines all the methods used to interact with a todo record(s).
	TodoInteraction interface {
		// FindTodo returns the todo for the given id.
		FindTodo(id int64) (*model.Todo, error)
		// FindTodosByTodoList returns the todos of the given todolist in insertion order.
		FindTodosByTodoList(todolistID int64) ([]*model.Todo, error)
		// CountTodos returns the number of todos of the given todolist.
		CountTodos(todolistID int64) (int, error)
		// CountTodosByStatus returns the number of finished or open todos of the given todolist.
		CountTodosByStatus(todolistID int64, finished bool) (int, error)
	}
)

// Open returns a new database connection for the given driver.
// For storm, dsn is the database file and codec the storage format.
func Open(driver, dsn, codec string) (Client, error) {
	switch driver {
	case "", DriverStorm:
		return StormOpen(dsn, codec)
	case DriverPostgres:
		return PostgresOpen(dsn)
	default:
		return nil, errors.Errorf("unsupported database driver: %s", driver)
	}
}

// FromMap creates a new model from the given attributes and saves it.
// Attributes left out get the same defaults as the constructors.
func FromMap(db Client, m model.Assignable, fields map[string]any) error {
	if err := model.Assign(m, fields); err != nil {
		return err
	}
	if err := m.Complete(); err != nil {
		return err
	}

	return db.Save(m)
}

// DeleteUser deletes the given user with its todolists, their todos and its sessions.
func DeleteUser(db Client, user *model.User) error {
	lists, err := db.FindTodoListsByCreator(user.Username)
	if err != nil {
		return err
	}
	for _, list := range lists {
		if err = db.DeleteTodoList(list); err != nil {
			return err
		}
	}

	sessions, err := db.FindSessionsByUserID(user.ID)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err = db.Delete(session); err != nil {
			return err
		}
	}

	return errors.Wrap(db.Delete(user), "could not delete user")
}

func stamp(m model.Model) {
	if m.GetCreatedAt() == nil {
		m.SetCreatedAt(model.Now())
	}
}
