package model

import (
	"fmt"
	"net/url"
	"time"

	argon2 "github.com/mdouchement/simple-argon2"
	"github.com/pkg/errors"
)

const (
	// UsernameMaxLength is the maximum length of a username.
	UsernameMaxLength = 64
	// EmailMaxLength is the maximum length of an email address.
	EmailMaxLength = 64
	// PasswordHashMaxLength is the maximum length of an encoded password digest.
	PasswordHashMaxLength = 256
)

type (
	// A User represents a database record.
	User struct {
		Base `msgpack:",inline" storm:"inline"`

		Username     string     `json:"username"      msgpack:"username"      storm:"unique"`
		Email        string     `json:"email"         msgpack:"email"         storm:"unique"`
		PasswordHash string     `json:"password_hash" msgpack:"password_hash"`
		LastSeen     *time.Time `json:"last_seen"     msgpack:"last_seen"`
		Admin        bool       `json:"is_admin"      msgpack:"is_admin"      storm:"index"`
	}

	// A TodoListCounter counts the todolists owned by a user.
	TodoListCounter interface {
		CountTodoListsByCreator(username string) (int, error)
	}
)

var userAttributes = map[string]string{
	"member_since": "CreatedAt",
	"created_at":   "CreatedAt",
	"last_seen":    "LastSeen",
	"is_admin":     "Admin",
}

// NewUser returns a new validated user.
func NewUser(username, email, password string) (*User, error) {
	user := &User{
		Base:     Base{CreatedAt: now()},
		LastSeen: now(),
	}

	if err := user.SetUsername(username); err != nil {
		return nil, err
	}
	if err := user.SetEmail(email); err != nil {
		return nil, err
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *User) String() string {
	if u.Admin {
		return fmt.Sprintf("<Admin %s>", u.Username)
	}
	return fmt.Sprintf("<User %s>", u.Username)
}

// SetUsername defines the username.
// It must not be empty, longer than 64 characters or contain whitespaces.
func (u *User) SetUsername(username string) error {
	if !CheckLength(username, UsernameMaxLength) || !usernameRegexp.MatchString(username) {
		return invalid("username", username, "%s is not a valid username", username)
	}

	u.Username = username
	return nil
}

// SetEmail defines the email address.
func (u *User) SetEmail(email string) error {
	if !CheckLength(email, EmailMaxLength) || !emailRegexp.MatchString(email) {
		return invalid("email", email, "%s is not a valid email address", email)
	}

	u.Email = email
	return nil
}

// SetPassword hashes and stores the given plaintext password.
func (u *User) SetPassword(password string) error {
	if password == "" {
		return invalid("password", "", "no password given")
	}

	hash, err := argon2.GenerateFromPasswordString(password, argon2.Default)
	if err != nil {
		return errors.Wrap(err, "could not hash password")
	}
	if len(hash) > PasswordHashMaxLength {
		return invalid("password", "", "not a valid password, hash is too long")
	}

	u.PasswordHash = hash
	return nil
}

// Password always fails, the password is write-only.
func (u *User) Password() (string, error) {
	return "", ErrPasswordNotReadable
}

// VerifyPassword returns true if the given plaintext matches the stored digest.
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return argon2.CompareHashAndPasswordString(u.PasswordHash, password) == nil
}

// Seen updates the last seen date and saves the user.
func (u *User) Seen(db Saver) error {
	u.LastSeen = now()
	return errors.Wrap(db.Save(u), "could not save last seen date")
}

// PromoteToAdmin grants admin privileges and saves the user.
func (u *User) PromoteToAdmin(db Saver) error {
	u.Admin = true
	return errors.Wrap(db.Save(u), "could not promote user")
}

// TodoListCount returns the number of todolists created by the user.
func (u *User) TodoListCount(c TodoListCounter) (int, error) {
	return c.CountTodoListsByCreator(u.Username)
}

// UserURL returns the API endpoint of the user.
func (u *User) UserURL(base string) string {
	return base + "/api/users/" + url.PathEscape(u.Username)
}

// TodoListsURL returns the API endpoint of the user's todolists.
func (u *User) TodoListsURL(base string) string {
	return u.UserURL(base) + "/todolists"
}

// Assign sets the given attribute.
func (u *User) Assign(attribute string, value any) error {
	switch attribute {
	case "username":
		v, err := stringValue(attribute, value)
		if err != nil {
			return err
		}
		return u.SetUsername(v)
	case "email":
		v, err := stringValue(attribute, value)
		if err != nil {
			return err
		}
		return u.SetEmail(v)
	case "password":
		v, err := stringValue(attribute, value)
		if err != nil {
			return err
		}
		return u.SetPassword(v)
	}

	return assignField(u, userAttributes, attribute, value)
}

// Complete fills the defaults of a user built through Assign.
func (u *User) Complete() error {
	switch {
	case u.Username == "":
		return invalid("username", "", "username is required")
	case u.Email == "":
		return invalid("email", "", "email is required")
	case u.PasswordHash == "":
		return invalid("password", "", "password is required")
	}

	if u.LastSeen == nil {
		u.LastSeen = now()
	}
	return nil
}
