package database

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver
	"github.com/mdouchement/todolist/internal/model"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

const pgUniqueViolation = "23505"

//go:embed migrations/*.sql
var migrations embed.FS

type pg struct {
	db *sql.DB
}

// PostgresOpen returns a new PostgreSQL database connection.
func PostgresOpen(dsn string) (Client, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not reach database")
	}

	return NewPostgres(db), nil
}

// NewPostgres returns a Client using the given PostgreSQL connection.
func NewPostgres(db *sql.DB) Client {
	return &pg{db: db}
}

// PostgresMigrate applies all the schema migrations on the given database.
func PostgresMigrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "could not select migration dialect")
	}

	return errors.Wrap(goose.Up(db, "migrations"), "could not migrate database")
}

// Save inserts or updates the entry in database with the given model.
func (c *pg) Save(m model.Model) error {
	stamp(m)

	var err error
	switch v := m.(type) {
	case *model.User:
		err = c.saveUser(v)
	case *model.Session:
		err = c.saveSession(v)
	case *model.TodoList:
		err = c.saveTodoList(v)
	case *model.Todo:
		err = c.saveTodo(v)
	default:
		return errors.Errorf("unsupported model: %T", m)
	}

	return errors.Wrap(err, "could not save the model")
}

func (c *pg) saveUser(u *model.User) error {
	if u.ID == 0 {
		return c.db.QueryRow(
			`INSERT INTO users (username, email, password_hash, member_since, last_seen, is_admin)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.LastSeen, u.Admin,
		).Scan(&u.ID)
	}

	return c.exec(
		`UPDATE users SET username = $2, email = $3, password_hash = $4, member_since = $5, last_seen = $6, is_admin = $7
		 WHERE id = $1`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.LastSeen, u.Admin,
	)
}

func (c *pg) saveSession(s *model.Session) error {
	if s.ID == 0 {
		return c.db.QueryRow(
			`INSERT INTO sessions (user_id, user_agent, access_token, created_at, expire_at)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			s.UserID, s.UserAgent, s.AccessToken, s.CreatedAt, s.ExpireAt,
		).Scan(&s.ID)
	}

	return c.exec(
		`UPDATE sessions SET user_id = $2, user_agent = $3, access_token = $4, created_at = $5, expire_at = $6
		 WHERE id = $1`,
		s.ID, s.UserID, s.UserAgent, s.AccessToken, s.CreatedAt, s.ExpireAt,
	)
}

func (c *pg) saveTodoList(l *model.TodoList) error {
	if l.ID == 0 {
		return c.db.QueryRow(
			`INSERT INTO todolists (title, created_at, creator)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			l.Title, l.CreatedAt, nullString(l.Creator),
		).Scan(&l.ID)
	}

	return c.exec(
		`UPDATE todolists SET title = $2, created_at = $3, creator = $4
		 WHERE id = $1`,
		l.ID, l.Title, l.CreatedAt, nullString(l.Creator),
	)
}

func (c *pg) saveTodo(t *model.Todo) error {
	if t.ID == 0 {
		return c.db.QueryRow(
			`INSERT INTO todos (description, created_at, finished_at, is_finished, creator, todolist_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			t.Description, t.CreatedAt, t.FinishedAt, t.Finished, nullString(t.Creator), t.TodoListID,
		).Scan(&t.ID)
	}

	return c.exec(
		`UPDATE todos SET description = $2, created_at = $3, finished_at = $4, is_finished = $5, creator = $6, todolist_id = $7
		 WHERE id = $1`,
		t.ID, t.Description, t.CreatedAt, t.FinishedAt, t.Finished, nullString(t.Creator), t.TodoListID,
	)
}

// Delete deletes the entry in database with the given model.
func (c *pg) Delete(m model.Model) error {
	var table string
	switch m.(type) {
	case *model.User:
		table = "users"
	case *model.Session:
		table = "sessions"
	case *model.TodoList:
		table = "todolists"
	case *model.Todo:
		table = "todos"
	default:
		return errors.Errorf("unsupported model: %T", m)
	}

	return errors.Wrap(c.exec(`DELETE FROM `+table+` WHERE id = $1`, m.GetID()), "could not delete the model")
}

// exec runs the given statement and returns sql.ErrNoRows when nothing is affected.
func (c *pg) exec(query string, args ...any) error {
	r, err := c.db.Exec(query, args...)
	if err != nil {
		return err
	}

	n, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Close the database.
func (c *pg) Close() error {
	return c.db.Close()
}

// IsNotFound returns true if err is a not found error.
func (c *pg) IsNotFound(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

// IsAlreadyExists returns true if err is a uniqueness violation error.
func (c *pg) IsAlreadyExists(err error) bool {
	pgerr, ok := errors.Cause(err).(*pgconn.PgError)
	return ok && pgerr.Code == pgUniqueViolation
}

//
// Users
//

const userColumns = `id, username, email, password_hash, member_since, last_seen, is_admin`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.LastSeen, &u.Admin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUser returns the user for the given id.
func (c *pg) FindUser(id int64) (*model.User, error) {
	u, err := scanUser(c.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, errors.Wrap(err, "find user by id")
}

// FindUserByUsername returns the user for the given username.
func (c *pg) FindUserByUsername(username string) (*model.User, error) {
	u, err := scanUser(c.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	return u, errors.Wrap(err, "find user by username")
}

// FindUserByEmail returns the user for the given email.
func (c *pg) FindUserByEmail(email string) (*model.User, error) {
	u, err := scanUser(c.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, errors.Wrap(err, "find user by email")
}

// FindUsers returns all the users ordered by username.
func (c *pg) FindUsers() ([]*model.User, error) {
	rows, err := c.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY username`)
	if err != nil {
		return nil, errors.Wrap(err, "could not find users")
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "could not read user")
		}
		users = append(users, u)
	}
	return users, errors.Wrap(rows.Err(), "could not find users")
}

//
// Sessions
//

const sessionColumns = `id, user_id, user_agent, access_token, created_at, expire_at`

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.UserID, &s.UserAgent, &s.AccessToken, &s.CreatedAt, &s.ExpireAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSession returns the session for the given id.
func (c *pg) FindSession(id int64) (*model.Session, error) {
	s, err := scanSession(c.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	return s, errors.Wrap(err, "find session by id")
}

// FindSessionByAccessToken returns the session for the given id and access token.
func (c *pg) FindSessionByAccessToken(id int64, token string) (*model.Session, error) {
	s, err := scanSession(c.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND access_token = $2`,
		id, token,
	))
	return s, errors.Wrap(err, "find session by access token")
}

// FindSessionsByUserID returns all the sessions for the given user id.
func (c *pg) FindSessionsByUserID(userID int64) ([]*model.Session, error) {
	rows, err := c.db.Query(`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "could not find sessions by user id")
	}
	defer rows.Close()

	sessions := make([]*model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "could not read session")
		}
		sessions = append(sessions, s)
	}
	return sessions, errors.Wrap(rows.Err(), "could not find sessions by user id")
}

// RevokeExpiredSessions removes from database all expired sessions.
func (c *pg) RevokeExpiredSessions() error {
	_, err := c.db.Exec(`DELETE FROM sessions WHERE expire_at <= $1`, time.Now())
	return errors.Wrap(err, "could not revoke expired sessions")
}

//
// Todolists
//

const todolistColumns = `id, title, created_at, creator`

func scanTodoList(row interface{ Scan(...any) error }) (*model.TodoList, error) {
	var l model.TodoList
	var creator sql.NullString
	if err := row.Scan(&l.ID, &l.Title, &l.CreatedAt, &creator); err != nil {
		return nil, err
	}
	l.Creator = creator.String
	return &l, nil
}

// FindTodoList returns the todolist for the given id.
func (c *pg) FindTodoList(id int64) (*model.TodoList, error) {
	l, err := scanTodoList(c.db.QueryRow(`SELECT `+todolistColumns+` FROM todolists WHERE id = $1`, id))
	return l, errors.Wrap(err, "find todolist by id")
}

// FindTodoListsByCreator returns the todolists of the given username.
func (c *pg) FindTodoListsByCreator(username string) ([]*model.TodoList, error) {
	rows, err := c.db.Query(
		`SELECT `+todolistColumns+` FROM todolists WHERE creator IS NOT DISTINCT FROM $1 ORDER BY id`,
		nullString(username),
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not find todolists by creator")
	}
	defer rows.Close()

	lists := make([]*model.TodoList, 0)
	for rows.Next() {
		l, err := scanTodoList(rows)
		if err != nil {
			return nil, errors.Wrap(err, "could not read todolist")
		}
		lists = append(lists, l)
	}
	return lists, errors.Wrap(rows.Err(), "could not find todolists by creator")
}

// CountTodoListsByCreator returns the number of todolists of the given username.
func (c *pg) CountTodoListsByCreator(username string) (int, error) {
	var n int
	err := c.db.QueryRow(
		`SELECT count(*) FROM todolists WHERE creator IS NOT DISTINCT FROM $1`,
		nullString(username),
	).Scan(&n)
	return n, errors.Wrap(err, "could not count todolists by creator")
}

// DeleteTodoList deletes the given todolist and all its todos.
func (c *pg) DeleteTodoList(list *model.TodoList) error {
	tx, err := c.db.Begin()
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback() // nolint:errcheck

	if _, err = tx.Exec(`DELETE FROM todos WHERE todolist_id = $1`, list.ID); err != nil {
		return errors.Wrap(err, "could not delete todolist's todos")
	}

	r, err := tx.Exec(`DELETE FROM todolists WHERE id = $1`, list.ID)
	if err != nil {
		return errors.Wrap(err, "could not delete todolist")
	}
	if n, err := r.RowsAffected(); err == nil && n == 0 {
		return errors.Wrap(sql.ErrNoRows, "could not delete todolist")
	}

	return errors.Wrap(tx.Commit(), "could not commit todolist deletion")
}

//
// Todos
//

const todoColumns = `id, description, created_at, finished_at, is_finished, creator, todolist_id`

func scanTodo(row interface{ Scan(...any) error }) (*model.Todo, error) {
	var t model.Todo
	var creator sql.NullString
	if err := row.Scan(&t.ID, &t.Description, &t.CreatedAt, &t.FinishedAt, &t.Finished, &creator, &t.TodoListID); err != nil {
		return nil, err
	}
	t.Creator = creator.String
	return &t, nil
}

// FindTodo returns the todo for the given id.
func (c *pg) FindTodo(id int64) (*model.Todo, error) {
	t, err := scanTodo(c.db.QueryRow(`SELECT `+todoColumns+` FROM todos WHERE id = $1`, id))
	return t, errors.Wrap(err, "find todo by id")
}

// FindTodosByTodoList returns the todos of the given todolist in insertion order.
func (c *pg) FindTodosByTodoList(todolistID int64) ([]*model.Todo, error) {
	rows, err := c.db.Query(`SELECT `+todoColumns+` FROM todos WHERE todolist_id = $1 ORDER BY id`, todolistID)
	if err != nil {
		return nil, errors.Wrap(err, "could not find todos by todolist")
	}
	defer rows.Close()

	todos := make([]*model.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, errors.Wrap(err, "could not read todo")
		}
		todos = append(todos, t)
	}
	return todos, errors.Wrap(rows.Err(), "could not find todos by todolist")
}

// CountTodos returns the number of todos of the given todolist.
func (c *pg) CountTodos(todolistID int64) (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT count(*) FROM todos WHERE todolist_id = $1`, todolistID).Scan(&n)
	return n, errors.Wrap(err, "could not count todos")
}

// CountTodosByStatus returns the number of finished or open todos of the given todolist.
func (c *pg) CountTodosByStatus(todolistID int64, finished bool) (int, error) {
	var n int
	err := c.db.QueryRow(
		`SELECT count(*) FROM todos WHERE todolist_id = $1 AND is_finished = $2`,
		todolistID, finished,
	).Scan(&n)
	return n, errors.Wrap(err, "could not count todos by status")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
