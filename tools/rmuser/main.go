package main

import (
	"fmt"
	"log"

	"github.com/mdouchement/todolist/internal/database"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
)

var (
	driver string
	codec  string
)

func main() {
	c := &coral.Command{
		Use:   "rmuser <dsn> <username>",
		Short: "Remove a user and all its todolists from the database",
		Args:  coral.ExactArgs(2),
		RunE: func(_ *coral.Command, args []string) error {
			fmt.Println("Opening", args[0])
			db, err := database.Open(driver, args[0], codec)
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			// Fetch user
			user, err := db.FindUserByUsername(args[1])
			if err != nil {
				if db.IsNotFound(err) {
					fmt.Println("No account for this username")
					return nil
				}
				return errors.Wrap(err, "find user by username")
			}

			fmt.Println("User found:", user.ID)

			n, err := user.TodoListCount(db)
			if err != nil {
				return errors.Wrap(err, "count todolists")
			}

			if err = database.DeleteUser(db, user); err != nil {
				return errors.Wrap(err, "delete user")
			}
			fmt.Printf("User removed with %d todolist(s)\n", n)

			return nil
		},
	}
	c.Flags().StringVarP(&driver, "driver", "d", database.DriverStorm, "Database driver (storm or postgres)")
	c.Flags().StringVarP(&codec, "codec", "", database.CodecMsgpack, "Storage format of a storm database")

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}
