package server_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/appleboy/gofight/v2"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

func TestRequestPublicTodoLists(t *testing.T) {
	engine, ctrl, r := setup(t)
	createTodoList(t, ctrl, "owned", "george")

	var id int64
	r.POST("/api/todolists").SetJSON(gofight.D{"title": ""}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		id = v.GetInt64("id")
		assert.NotZero(t, id)
		assert.Equal(t, model.DefaultTitle, string(v.GetStringBytes("title")))
		assert.Equal(t, fastjson.TypeNull, v.Get("creator").Type())
		assert.Equal(t, 0, v.GetInt("total_todo_count"))
		assert.Equal(t, fmt.Sprintf("%s/api/todolists/%d/todos", base, id), string(v.GetStringBytes("todos")))
	})

	r.POST("/api/todolists").SetJSON(gofight.D{"title": strings.Repeat("a", 129)}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, "invalid-parameters", string(v.GetStringBytes("error", "tag")))
	})

	r.GET("/api/todolists").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		lists := v.GetArray("todolists")
		require.Len(t, lists, 1)
		assert.Equal(t, id, lists[0].GetInt64("id"))
	})

	path := fmt.Sprintf("/api/todolists/%d", id)
	r.PUT(path).SetJSON(gofight.D{"title": "groceries"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, "groceries", string(v.GetStringBytes("title")))
	})

	r.PUT(path).SetJSON(gofight.D{"title": ""}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
	})

	r.GET(path).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, "groceries", string(v.GetStringBytes("title")))
	})

	r.GET("/api/todolists/abc").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"Invalid todolist identifier."}}`, r.Body.String())
	})

	r.GET("/api/todolists/4242").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"not-found","message":"No such todolist."}}`, r.Body.String())
	})

	r.DELETE(path).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	r.GET(path).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestRequestPublicTodoList_OwnedIsHidden(t *testing.T) {
	engine, ctrl, r := setup(t)
	list := createTodoList(t, ctrl, "owned", "george")

	r.GET(fmt.Sprintf("/api/todolists/%d", list.ID)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})

	r.DELETE(fmt.Sprintf("/api/todolists/%d", list.ID)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestRequestUserTodoLists(t *testing.T) {
	engine, ctrl, r := setup(t)
	george := createUser(t, ctrl, "george")
	alice := createUser(t, ctrl, "alice")
	asGeorge := authorization(t, ctrl, george)
	asAlice := authorization(t, ctrl, alice)

	r.GET("/api/users/george/todolists").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})

	r.POST("/api/users/george/todolists").SetHeader(asAlice).SetJSON(gofight.D{"title": "groceries"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
	})

	var id int64
	r.POST("/api/users/george/todolists").SetHeader(asGeorge).SetJSON(gofight.D{"title": "groceries"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		id = v.GetInt64("id")
		assert.Equal(t, "george", string(v.GetStringBytes("creator")))
		assert.Equal(t, fmt.Sprintf("%s/api/users/george/todolists/%d/todos", base, id), string(v.GetStringBytes("todos")))
	})

	r.GET("/api/users/nobody/todolists").SetHeader(asGeorge).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})

	// Reading is allowed to any authenticated user.
	r.GET("/api/users/george/todolists").SetHeader(asAlice).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Len(t, v.GetArray("todolists"), 1)
	})

	path := fmt.Sprintf("/api/users/george/todolists/%d", id)
	r.GET(fmt.Sprintf("/api/users/alice/todolists/%d", id)).SetHeader(asAlice).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})

	r.PUT(path).SetHeader(asAlice).SetJSON(gofight.D{"title": "mine"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"forbidden","message":"You can not modify the todolists of another user."}}`, r.Body.String())
	})

	r.PUT(path).SetHeader(asGeorge).SetJSON(gofight.D{"title": "chores"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, "chores", string(v.GetStringBytes("title")))
	})

	r.DELETE(path).SetHeader(asAlice).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
	})

	r.DELETE(path).SetHeader(asGeorge).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	n, err := george.TodoListCount(ctrl.Database)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRequestTodoListTodos(t *testing.T) {
	engine, ctrl, r := setup(t)
	george := createUser(t, ctrl, "george")
	list := createTodoList(t, ctrl, "groceries", "george")
	createTodo(t, ctrl, list, "milk")
	public := createTodoList(t, ctrl, "public", "")

	path := fmt.Sprintf("/api/users/george/todolists/%d/todos", list.ID)

	r.POST(path).SetHeader(authorization(t, ctrl, george)).SetJSON(gofight.D{"description": "eggs"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, "eggs", string(v.GetStringBytes("description")))
		assert.Equal(t, "george", string(v.GetStringBytes("creator")))
		assert.Equal(t, model.StatusOpen, string(v.GetStringBytes("status")))
		assert.Equal(t, fastjson.TypeNull, v.Get("finished_at").Type())
	})

	r.POST(path).SetHeader(authorization(t, ctrl, george)).SetJSON(gofight.D{"description": ""}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"A description must be between 1 and 128 characters."}}`, r.Body.String())
	})

	r.GET(path).SetHeader(authorization(t, ctrl, george)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		todos := v.GetArray("todos")
		require.Len(t, todos, 2)
		assert.Equal(t, "milk", string(todos[0].GetStringBytes("description")))
		assert.Equal(t, "eggs", string(todos[1].GetStringBytes("description")))
	})

	r.GET(fmt.Sprintf("/api/users/george/todolists/%d", list.ID)).SetHeader(authorization(t, ctrl, george)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, 2, v.GetInt("total_todo_count"))
		assert.Equal(t, 2, v.GetInt("open_todo_count"))
		assert.Equal(t, 0, v.GetInt("finished_todo_count"))
	})

	// Anonymous todos of an ownerless todolist.
	publicPath := fmt.Sprintf("/api/todolists/%d/todos", public.ID)
	r.POST(publicPath).SetJSON(gofight.D{"description": "bread"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, fastjson.TypeNull, v.Get("creator").Type())
	})

	// An authenticated user is recorded as creator.
	r.POST(publicPath).SetHeader(authorization(t, ctrl, george)).SetJSON(gofight.D{"description": "butter"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, "george", string(v.GetStringBytes("creator")))
	})

	r.GET(publicPath).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Len(t, v.GetArray("todos"), 2)
	})
}
