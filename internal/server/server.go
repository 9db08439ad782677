package server

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/internal/server/middlewares"
	"github.com/mdouchement/todolist/internal/server/session"
	"github.com/sirupsen/logrus"
)

// An IOC is an Iversion Of Control pattern used to init the server package.
type IOC struct {
	Version        string
	Database       database.Client
	Logger         *logrus.Logger
	NoRegistration bool
	// BaseURL prefixes the resource links, it can be empty.
	BaseURL string
	// Session params
	SessionSecret []byte
	SessionTTL    time.Duration
}

// EchoEngine instantiates the wep server.
func EchoEngine(ctrl IOC) *echo.Echo {
	if ctrl.Logger == nil {
		ctrl.Logger = logrus.StandardLogger()
	}

	engine := echo.New()
	engine.HideBanner = true
	engine.Use(middleware.Recover())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	engine.Use(middleware.Gzip())

	engine.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${status}] ${method} ${uri} (${bytes_in}) ${latency_human}\n",
		Output: ctrl.Logger.WriterLevel(logrus.InfoLevel),
	}))
	engine.Binder = middlewares.NewBinder()
	// Error handler
	engine.HTTPErrorHandler = middlewares.HTTPErrorHandler(ctrl.Logger)

	engine.Pre(middleware.Rewrite(map[string]string{
		"/": "/version",
	}))

	////////////
	// Router //
	////////////

	sessions := session.NewManager(
		ctrl.Database,
		ctrl.SessionSecret,
		ctrl.SessionTTL,
	)

	restricted := middlewares.Session(sessions, ctrl.Database)
	optional := middlewares.OptionalSession(sessions, ctrl.Database)

	router := engine.Group("")
	api := router.Group("/api")

	// generic handlers
	//
	router.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
		})
	})

	//
	// auth handlers
	//
	auth := &auth{
		db:       ctrl.Database,
		sessions: sessions,
		base:     ctrl.BaseURL,
	}
	if !ctrl.NoRegistration {
		api.POST("/users", auth.Register)
	}
	api.POST("/auth/sign_in", auth.Login)
	api.DELETE("/auth/sign_out", auth.Logout, restricted)

	//
	// user handlers
	//
	user := &user{
		db:       ctrl.Database,
		sessions: sessions,
		base:     ctrl.BaseURL,
	}
	api.GET("/users/:username", user.Show, restricted)
	api.DELETE("/users/:username", user.Delete, restricted)
	api.PUT("/users/:username/admin", user.Promote, restricted)

	//
	// todolist handlers
	//
	todolist := &todolist{
		db:   ctrl.Database,
		base: ctrl.BaseURL,
	}
	for _, scope := range []struct {
		prefix string
		auth   echo.MiddlewareFunc
	}{
		{prefix: "/users/:username/todolists", auth: restricted},
		{prefix: "/todolists", auth: optional},
	} {
		api.GET(scope.prefix, todolist.List, scope.auth)
		api.POST(scope.prefix, todolist.Create, scope.auth)
		api.GET(scope.prefix+"/:todolist_id", todolist.Show, scope.auth)
		api.PUT(scope.prefix+"/:todolist_id", todolist.Update, scope.auth)
		api.DELETE(scope.prefix+"/:todolist_id", todolist.Delete, scope.auth)
		api.GET(scope.prefix+"/:todolist_id/todos", todolist.Todos, scope.auth)
		api.POST(scope.prefix+"/:todolist_id/todos", todolist.AddTodo, scope.auth)
	}

	//
	// todo handlers
	//
	todo := &todo{
		db: ctrl.Database,
	}
	api.PUT("/todos/:todo_id/finished", todo.Finish, optional)
	api.PUT("/todos/:todo_id/reopen", todo.Reopen, optional)
	api.DELETE("/todos/:todo_id", todo.Delete, optional)

	return engine
}

// PrintRoutes prints the Echo engin exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}

func currentUser(c echo.Context) *model.User {
	user, ok := c.Get(middlewares.CurrentUserContextKey).(*model.User)
	if ok {
		return user
	}
	return nil
}

func currentSession(c echo.Context) *model.Session {
	session, ok := c.Get(middlewares.CurrentSessionContextKey).(*model.Session)
	if ok {
		return session
	}
	return nil
}
