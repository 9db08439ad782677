package server_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/appleboy/gofight/v2"
	"github.com/mdouchement/todolist/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fastjson"
)

func TestRequestRegistration(t *testing.T) {
	engine, ctrl, r := setup(t)

	r.POST("/api/users").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"Could not get user's params."}}`, r.Body.String())
	})

	params := gofight.D{}
	r.POST("/api/users").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"No username provided."}}`, r.Body.String())
	})

	params["username"] = "george abitbol"
	r.POST("/api/users").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"No email provided."}}`, r.Body.String())
	})

	params["email"] = "george.abitbol@nowhere.lan"
	r.POST("/api/users").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"No password provided."}}`, r.Body.String())
	})

	params["password"] = "password42"
	r.POST("/api/users").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"george abitbol is not a valid username"}}`, r.Body.String())
	})

	params["username"] = "george"
	params["email"] = "george"
	r.POST("/api/users").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"george is not a valid email address"}}`, r.Body.String())
	})

	params["email"] = "george.abitbol@nowhere.lan"
	r.POST("/api/users").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)

		assert.True(t, strings.HasPrefix(string(v.GetStringBytes("token")), "v2.local."))
		assert.Equal(t, "george", string(v.GetStringBytes("user", "username")))
		assert.Equal(t, base+"/api/users/george", string(v.GetStringBytes("user", "user_url")))
		assert.Equal(t, base+"/api/users/george/todolists", string(v.GetStringBytes("user", "todolists")))
		assert.Equal(t, 0, v.GetInt("user", "todolist_count"))
		assert.False(t, v.GetBool("user", "is_admin"))
		assert.Nil(t, v.Get("user", "email"))
		assert.Nil(t, v.Get("user", "password_hash"))

		timestamp, err := time.Parse(time.RFC3339Nano, string(v.GetStringBytes("user", "member_since")))
		assert.NoError(t, err)
		assert.Less(t, time.Since(timestamp), 5*time.Second)
	})

	user, err := ctrl.Database.FindUserByUsername("george")
	assert.NoError(t, err)
	assert.True(t, user.VerifyPassword("password42"))

	r.POST("/api/users").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusConflict, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"already-exists","message":"This username is already taken."}}`, r.Body.String())
	})

	params["username"] = "georges"
	r.POST("/api/users").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusConflict, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"already-exists","message":"This email is already registered."}}`, r.Body.String())
	})

	users, err := ctrl.Database.FindUsers()
	assert.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRequestRegistration_Disabled(t *testing.T) {
	engine, _, r := setupWithIOC(t, func(ioc *server.IOC) {
		ioc.NoRegistration = true
	})

	params := gofight.D{
		"username": "george",
		"email":    "george.abitbol@nowhere.lan",
		"password": "password42",
	}
	r.POST("/api/users").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestRequestLogin(t *testing.T) {
	engine, ctrl, r := setup(t)
	createUser(t, ctrl, "george")

	r.POST("/api/auth/sign_in").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"Could not get credentials."}}`, r.Body.String())
	})

	params := gofight.D{
		"login":    "",
		"password": "",
	}
	r.POST("/api/auth/sign_in").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"No login or password provided."}}`, r.Body.String())
	})

	params["login"] = "george"
	params["password"] = "password"
	r.POST("/api/auth/sign_in").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid login or password."}}`, r.Body.String())
	})

	params["login"] = "nobody"
	params["password"] = "password42"
	r.POST("/api/auth/sign_in").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid login or password."}}`, r.Body.String())
	})

	for _, login := range []string{"george", "george@nowhere.lan"} {
		params["login"] = login
		r.POST("/api/auth/sign_in").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)

			v, err := fastjson.Parse(r.Body.String())
			assert.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(v.GetStringBytes("token")), "v2.local."))
			assert.Equal(t, "george", string(v.GetStringBytes("user", "username")))
			assert.NotEmpty(t, string(v.GetStringBytes("session", "expire_at")))
		})
	}

	user, err := ctrl.Database.FindUserByUsername("george")
	assert.NoError(t, err)
	sessions, err := ctrl.Database.FindSessionsByUserID(user.ID)
	assert.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.NotEmpty(t, sessions[0].UserAgent)
}

func TestRequestLogout(t *testing.T) {
	engine, ctrl, r := setup(t)
	user := createUser(t, ctrl, "george")
	header := authorization(t, ctrl, user)

	r.DELETE("/api/auth/sign_out").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid login credentials."}}`, r.Body.String())
	})

	r.DELETE("/api/auth/sign_out").SetHeader(gofight.H{"Authorization": "Bearer v2.local.forged"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})

	r.DELETE("/api/auth/sign_out").SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	sessions, err := ctrl.Database.FindSessionsByUserID(user.ID)
	assert.NoError(t, err)
	assert.Empty(t, sessions)

	r.DELETE("/api/auth/sign_out").SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid login credentials."}}`, r.Body.String())
	})
}

func TestRequestSession_UserGone(t *testing.T) {
	engine, ctrl, r := setup(t)
	user := createUser(t, ctrl, "george")
	header := authorization(t, ctrl, user)

	r.GET("/api/todolists").SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
	})

	assert.NoError(t, ctrl.Database.Delete(user))

	r.GET("/api/todolists").SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid login credentials."}}`, r.Body.String())
	})
}
