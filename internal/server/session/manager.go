package session

import (
	"strconv"
	"time"

	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/o1egl/paseto/v2"
	"github.com/pkg/errors"
)

const (
	// Issuer is the issuer of the session tokens.
	Issuer = "todolist"
	// TypeAccessToken is the audience of the access tokens.
	TypeAccessToken = "access_token"
)

type (
	// A Manager manages sessions.
	Manager interface {
		// SessionSecret returns the key used to encrypt the tokens.
		SessionSecret() []byte
		// Generate creates a new session for the given user.
		Generate(user *model.User, userAgent string) (*model.Session, error)
		// Token renders the encrypted token of the given session.
		Token(session *model.Session) (string, error)
		// ParseToken decrypts and validates the given token.
		// It returns the session id and its access token.
		ParseToken(token string) (int64, string, error)
		// Validate finds and validates a session.
		Validate(id int64, token string) (*model.Session, error)
		// UserFromSession returns the user of the given session.
		UserFromSession(session *model.Session) (*model.User, error)
		// Authenticate returns the session and the user of the given token.
		Authenticate(token string) (*model.Session, *model.User, error)
	}

	manager struct {
		db     database.Client
		secret []byte
		ttl    time.Duration
		v2     *paseto.V2
	}
)

// NewManager returns a new manager.
// The secret must be 32 bytes long.
func NewManager(db database.Client, secret []byte, ttl time.Duration) Manager {
	return &manager{
		db:     db,
		secret: secret,
		ttl:    ttl,
		v2:     paseto.NewV2(),
	}
}

func (m *manager) SessionSecret() []byte {
	return m.secret
}

func (m *manager) Generate(user *model.User, userAgent string) (*model.Session, error) {
	token, err := SecureToken(24)
	if err != nil {
		return nil, errors.Wrap(err, "could not generate access token")
	}

	return &model.Session{
		UserID:      user.ID,
		UserAgent:   userAgent,
		ExpireAt:    time.Now().Add(m.ttl).UTC(),
		AccessToken: token,
	}, nil
}

func (m *manager) Token(session *model.Session) (string, error) {
	now := time.Now()

	claims := paseto.JSONToken{
		Issuer:     Issuer,
		Audience:   TypeAccessToken,
		Subject:    strconv.FormatInt(session.ID, 10),
		Jti:        session.AccessToken,
		IssuedAt:   now,
		NotBefore:  now,
		Expiration: session.ExpireAt,
	}

	token, err := m.v2.Encrypt(m.secret, claims, nil)
	return token, errors.Wrap(err, "could not encrypt token")
}

func (m *manager) ParseToken(token string) (int64, string, error) {
	var claims paseto.JSONToken
	if err := m.v2.Decrypt(token, m.secret, &claims, nil); err != nil {
		return 0, "", errors.Wrap(err, "could not decrypt token")
	}

	err := claims.Validate(
		paseto.IssuedBy(Issuer),
		paseto.ForAudience(TypeAccessToken),
		paseto.ValidAt(time.Now()),
	)
	if err != nil {
		return 0, "", errors.Wrap(err, "invalid token")
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", errors.Wrap(err, "invalid token subject")
	}

	return id, claims.Jti, nil
}

func (m *manager) Validate(id int64, token string) (*model.Session, error) {
	session, err := m.db.FindSession(id)
	if err != nil {
		if m.db.IsNotFound(err) {
			return nil, apierror.InvalidAuth("Invalid login credentials.")
		}
		return nil, errors.Wrap(err, "could not get access to database")
	}

	if !SecureCompare(session.AccessToken, token) {
		return nil, apierror.InvalidAuth("Invalid login credentials.")
	}

	if session.IsExpired(time.Now()) {
		return nil, apierror.InvalidAuth("The provided access token has expired.")
	}

	return session, nil
}

func (m *manager) UserFromSession(session *model.Session) (*model.User, error) {
	user, err := m.db.FindUser(session.UserID)
	if err != nil {
		if m.db.IsNotFound(err) {
			return nil, apierror.InvalidAuth("Invalid login credentials.")
		}
		return nil, errors.Wrap(err, "could not get access to database")
	}

	return user, nil
}

func (m *manager) Authenticate(token string) (*model.Session, *model.User, error) {
	id, access, err := m.ParseToken(token)
	if err != nil {
		return nil, nil, apierror.InvalidAuth("Invalid login credentials.")
	}

	session, err := m.Validate(id, access)
	if err != nil {
		return nil, nil, err
	}

	user, err := m.UserFromSession(session)
	if err != nil {
		return nil, nil, err
	}

	return session, user, nil
}
