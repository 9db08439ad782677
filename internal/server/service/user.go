package service

import (
	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/internal/server/serializer"
	"github.com/mdouchement/todolist/internal/server/session"
	"github.com/pkg/errors"
)

type (
	// A UserService handles the user accounts.
	UserService interface {
		Register(params RegisterParams) (Render, error)
		Login(params LoginParams) (Render, error)
		Logout(session *model.Session) error
		Show(user *model.User) (Render, error)
		Promote(current, user *model.User) (Render, error)
		Delete(current, user *model.User) error
	}

	// RegisterParams are used to register a user.
	RegisterParams struct {
		Params
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// LoginParams are used to login a user.
	// Login is either a username or an email address.
	LoginParams struct {
		Params
		Login    string `json:"login"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	userService struct {
		db       database.Client
		sessions session.Manager
		base     string
	}
)

// NewUser returns a new UserService.
func NewUser(db database.Client, sessions session.Manager, base string) UserService {
	return &userService{
		db:       db,
		sessions: sessions,
		base:     base,
	}
}

func (s *userService) Register(params RegisterParams) (Render, error) {
	// Check if the username and email are free to use.
	if _, err := s.db.FindUserByUsername(params.Username); err == nil {
		return nil, apierror.Conflict("This username is already taken.")
	} else if !s.db.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not get access to database")
	}
	if _, err := s.db.FindUserByEmail(params.Email); err == nil {
		return nil, apierror.Conflict("This email is already registered.")
	} else if !s.db.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not get access to database")
	}

	user, err := model.NewUser(params.Username, params.Email, params.Password)
	if err != nil {
		return nil, err
	}

	// Persist the model
	if err = s.db.Save(user); err != nil {
		if s.db.IsAlreadyExists(err) {
			return nil, apierror.Conflict("This username or email is already registered.")
		}
		return nil, errors.Wrap(err, "could not persist user")
	}

	return s.authenticated(user, params.Params)
}

func (s *userService) Login(params LoginParams) (Render, error) {
	login := params.Login
	if login == "" {
		login = params.Username
	}
	if login == "" {
		login = params.Email
	}

	// Retrieve user
	user, err := s.db.FindUserByUsername(login)
	if s.db.IsNotFound(err) {
		user, err = s.db.FindUserByEmail(login)
	}
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, apierror.InvalidAuth("Invalid login or password.")
		}
		return nil, errors.Wrap(err, "could not get user")
	}

	// Verify password
	if !user.VerifyPassword(params.Password) {
		return nil, apierror.InvalidAuth("Invalid login or password.")
	}

	if err = user.Seen(s.db); err != nil {
		return nil, err
	}

	// Expired sessions are cleaned on each login.
	if err = s.db.RevokeExpiredSessions(); err != nil {
		return nil, err
	}

	return s.authenticated(user, params.Params)
}

func (s *userService) Logout(session *model.Session) error {
	if session == nil {
		return nil
	}

	err := s.db.Delete(session)
	if err != nil && !s.db.IsNotFound(err) {
		return errors.Wrap(err, "could not delete session")
	}
	return nil
}

func (s *userService) Show(user *model.User) (Render, error) {
	n, err := user.TodoListCount(s.db)
	if err != nil {
		return nil, errors.Wrap(err, "could not count todolists")
	}

	return serializer.User(user, n, s.base), nil
}

func (s *userService) Promote(current, user *model.User) (Render, error) {
	if !current.Admin {
		return nil, apierror.Forbidden("Only an admin can promote a user.")
	}

	if err := user.PromoteToAdmin(s.db); err != nil {
		return nil, err
	}
	return s.Show(user)
}

func (s *userService) Delete(current, user *model.User) error {
	if current.ID != user.ID && !current.Admin {
		return apierror.Forbidden("You can not delete this user.")
	}

	return database.DeleteUser(s.db, user)
}

func (s *userService) authenticated(user *model.User, params Params) (Render, error) {
	session, err := s.sessions.Generate(user, params.UserAgent)
	if err != nil {
		return nil, err
	}
	if err = s.db.Save(session); err != nil {
		return nil, errors.Wrap(err, "could not persist session")
	}

	token, err := s.sessions.Token(session)
	if err != nil {
		return nil, err
	}

	render, err := s.Show(user)
	if err != nil {
		return nil, err
	}

	return M{
		"user":  render,
		"token": token,
		"session": M{
			"expire_at": session.ExpireAt.UTC(),
		},
	}, nil
}
