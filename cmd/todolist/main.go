package main

import (
	"fmt"
	"hash"
	"io"
	"log"
	"net"
	"os"
	"runtime"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mdouchement/todolist/internal/config"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/logger"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/internal/server"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg string
)

func main() {
	c := &coral.Command{
		Use:     "todolist",
		Short:   "Multi-user todolist server",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    coral.ExactArgs(0),
	}
	c.PersistentFlags().StringVarP(&cfg, "config", "c", "", "Configuration file (YAML or TOML)")

	c.AddCommand(initCmd)
	c.AddCommand(reindexCmd)
	c.AddCommand(serverCmd)
	c.AddCommand(useraddCmd)
	c.AddCommand(promoteCmd)

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func kdf(l int, k []byte) []byte {
	nhash := func() hash.Hash {
		h, err := blake2b.New256(nil)
		if err != nil {
			panic(err)
		}
		return h
	}

	payload := make([]byte, l)

	kdf := hkdf.New(nhash, k, nil, nil)
	_, err := io.ReadFull(kdf, payload)
	if err != nil {
		panic(err)
	}

	return payload
}

func open(konf *config.Config) (database.Client, error) {
	db, err := database.Open(konf.Database.Driver, konf.DSN(), konf.Database.Codec)
	return db, errors.Wrap(err, "could not open database")
}

var (
	initCmd = &coral.Command{
		Use:   "init",
		Short: "Init the database",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := config.Load(cfg)
			if err != nil {
				return err
			}

			switch konf.Database.Driver {
			case database.DriverPostgres:
				return database.PostgresMigrate(konf.DSN())
			default:
				return database.StormInit(konf.DSN(), konf.Database.Codec)
			}
		},
	}

	//
	reindexCmd = &coral.Command{
		Use:   "reindex",
		Short: "Reindex the database",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := config.Load(cfg)
			if err != nil {
				return err
			}

			if konf.Database.Driver == database.DriverPostgres {
				return errors.New("reindex is only supported by the storm driver")
			}
			return database.StormReIndex(konf.DSN(), konf.Database.Codec)
		},
	}

	//
	useraddCmd = &coral.Command{
		Use:   "useradd <username> <email>",
		Short: "Create a user, the password is read from stdin",
		Args:  coral.ExactArgs(2),
		RunE: func(_ *coral.Command, args []string) error {
			konf, err := config.Load(cfg)
			if err != nil {
				return err
			}

			password, err := readline.Password("Password: ")
			if err != nil {
				return errors.Wrap(err, "could not read password from stdin")
			}

			user, err := model.NewUser(args[0], args[1], string(password))
			if err != nil {
				return err
			}

			db, err := open(konf)
			if err != nil {
				return err
			}
			defer db.Close()

			if err = db.Save(user); err != nil {
				if db.IsAlreadyExists(err) {
					return errors.New("username or email already taken")
				}
				return errors.Wrap(err, "could not save user")
			}

			fmt.Println("User created:", user.ID)
			return nil
		},
	}

	//
	promoteCmd = &coral.Command{
		Use:   "promote <username>",
		Short: "Promote a user to administrator",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			konf, err := config.Load(cfg)
			if err != nil {
				return err
			}

			db, err := open(konf)
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := db.FindUserByUsername(args[0])
			if err != nil {
				if db.IsNotFound(err) {
					return errors.Errorf("no such user: %s", args[0])
				}
				return errors.Wrap(err, "find user by username")
			}

			if err = user.PromoteToAdmin(db); err != nil {
				return err
			}

			fmt.Println(user, "is now an administrator")
			return nil
		},
	}

	//
	//
	serverCmd = &coral.Command{
		Use:   "server",
		Short: "Start server",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := config.Load(cfg)
			if err != nil {
				return err
			}

			if konf.Session.Secret == "" {
				return errors.New("session secret not found")
			}

			l, err := logger.New(konf.Log)
			if err != nil {
				return err
			}

			settings := *konf
			settings.Session.Secret = "[FILTERED]"
			logger.Dump(l, settings, true)

			db, err := open(konf)
			if err != nil {
				return err
			}
			defer db.Close()

			engine := server.EchoEngine(server.IOC{
				Version:        version,
				Database:       db,
				Logger:         l,
				NoRegistration: konf.NoRegistration,
				BaseURL:        konf.BaseURL,
				SessionSecret:  kdf(32, []byte(konf.Session.Secret)),
				SessionTTL:     konf.Session.TTL,
			})
			server.PrintRoutes(engine)

			address := konf.Address
			message := "could not run server"
			l.WithField("environment", konf.Environment).Infof("Server listening on %s", address)
			parts := strings.Split(address, ":")
			if len(parts) == 2 && parts[0] == "unix" {
				socketFile := parts[1]
				if _, err := os.Stat(socketFile); err == nil {
					l.Infof("Removing existing %s", socketFile)
					os.Remove(socketFile)
				}
				defer os.Remove(socketFile)
				listener, err := net.Listen(parts[0], socketFile)
				if err != nil {
					return err
				}
				return errors.Wrap(engine.Server.Serve(listener), message)
			}
			return errors.Wrap(engine.Start(address), message)
		},
	}
)
