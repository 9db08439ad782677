package session_test

import (
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/internal/server/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("00000000000000000000000000000000")

func setup(t *testing.T) (database.Client, session.Manager, *model.User) {
	t.Helper()

	filename := filepath.Join(t.TempDir(), "todolist.db")
	require.NoError(t, database.StormInit(filename, ""))
	db, err := database.StormOpen(filename, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	user, err := model.NewUser("george", "george@nowhere.lan", "password42")
	require.NoError(t, err)
	require.NoError(t, db.Save(user))

	return db, session.NewManager(db, secret, time.Hour), user
}

func TestManager_Generate(t *testing.T) {
	_, m, user := setup(t)

	s, err := m.Generate(user, "Go-http-client/1.1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, s.UserID)
	assert.Equal(t, "Go-http-client/1.1", s.UserAgent)
	assert.Len(t, s.AccessToken, 24)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpireAt, time.Second)
	assert.Equal(t, secret, m.SessionSecret())
}

func TestManager_Token(t *testing.T) {
	db, m, user := setup(t)

	s, err := m.Generate(user, "")
	require.NoError(t, err)
	require.NoError(t, db.Save(s))

	token, err := m.Token(s)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v2.local."))

	id, access, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, id)
	assert.Equal(t, s.AccessToken, access)

	_, u, err := m.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, u.ID)

	other := session.NewManager(db, []byte("11111111111111111111111111111111"), time.Hour)
	_, _, err = other.ParseToken(token)
	assert.Error(t, err)

	_, _, err = other.Authenticate(token)
	assert.Equal(t, http.StatusUnauthorized, apierror.StatusCode(err))
}

func TestManager_Validate(t *testing.T) {
	db, m, user := setup(t)

	s, err := m.Generate(user, "")
	require.NoError(t, err)
	require.NoError(t, db.Save(s))

	session, err := m.Validate(s.ID, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.ID, session.ID)

	_, err = m.Validate(s.ID, "forged")
	assert.Equal(t, http.StatusUnauthorized, apierror.StatusCode(err))

	_, err = m.Validate(s.ID+1, s.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, apierror.StatusCode(err))

	s.ExpireAt = time.Now().Add(-time.Minute)
	require.NoError(t, db.Save(s))
	_, err = m.Validate(s.ID, s.AccessToken)
	assert.EqualError(t, err, "The provided access token has expired.")
}

func TestManager_UserFromSession(t *testing.T) {
	db, m, user := setup(t)

	s, err := m.Generate(user, "")
	require.NoError(t, err)
	u, err := m.UserFromSession(s)
	require.NoError(t, err)
	assert.Equal(t, "george", u.Username)

	require.NoError(t, db.Delete(user))
	_, err = m.UserFromSession(s)
	assert.Equal(t, http.StatusUnauthorized, apierror.StatusCode(err))
}

func TestManager_Authenticate(t *testing.T) {
	db, m, user := setup(t)

	s, err := m.Generate(user, "")
	require.NoError(t, err)
	require.NoError(t, db.Save(s))

	token, err := m.Token(s)
	require.NoError(t, err)

	found, u, err := m.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, found.ID)
	assert.Equal(t, user.ID, u.ID)

	_, _, err = m.Authenticate("v2.local.garbage")
	assert.EqualError(t, err, "Invalid login credentials.")

	require.NoError(t, db.Delete(s))
	_, _, err = m.Authenticate(token)
	assert.Equal(t, http.StatusUnauthorized, apierror.StatusCode(err))
}
