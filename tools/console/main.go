package main

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"

	"github.com/asdine/storm/v3"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/pkg/stormsql"
	"github.com/mdouchement/todolist/pkg/structs"
	"github.com/pkg/errors"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
)

// go run tools/console/main.go todolist-dev.db " SELECT count(*) FROM todos WHERE todolist_id = 3 AND created_at > '2024-02-16 20:52:55';  "

var schema = stormsql.Schema{
	"users":     &model.User{},
	"sessions":  &model.Session{},
	"todolists": &model.TodoList{},
	"todos":     &model.Todo{},
}

var (
	codec   string
	verbose bool
)

func main() {
	c := &cobra.Command{
		Use:   "console",
		Short: "SQL console for todolist storm database",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			sc, err := stormsql.ParseSelect(args[1], schema)
			if err != nil {
				return err
			}

			cdc, err := database.Codec(codec)
			if err != nil {
				return err
			}

			fmt.Println("Opening", args[0])
			db, err := storm.Open(args[0], storm.Codec(cdc))
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			//
			// Prepare request
			//

			query := db.Select(sc.Matcher)
			if sc.Skip > 0 {
				query.Skip(sc.Skip)
			}
			if sc.Limit > 0 {
				query.Limit(sc.Limit)
			}
			if len(sc.OrderBy) > 0 {
				query.OrderBy(sc.OrderBy...)
				if sc.OrderByReversed {
					query.Reverse()
				}
			}

			// Execute

			if sc.Count {
				return count(sc, query)
			}

			return list(sc, query)
		},
	}
	c.Flags().StringVarP(&codec, "codec", "", database.CodecMsgpack, "Storage format of the database (msgpack, cbor or binc)")
	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "Dump the Go values instead of JSON")

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func count(sc *stormsql.SelectClause, query storm.Query) error {
	record, err := schema.Model(sc.Tablename)
	if err != nil {
		return err
	}

	n, err := query.Count(record)
	if err != nil {
		return errors.Wrap(err, "could not perform query")
	}

	fmt.Println("Count:", n)

	return nil
}

func list(sc *stormsql.SelectClause, query storm.Query) error {
	var records any
	switch sc.Tablename {
	case "users":
		records = &[]*model.User{}
	case "sessions":
		records = &[]*model.Session{}
	case "todolists":
		records = &[]*model.TodoList{}
	case "todos":
		records = &[]*model.Todo{}
	default:
		return errors.Errorf("unknown tablename: %s", sc.Tablename)
	}

	err := query.Find(records)
	if err == storm.ErrNotFound {
		fmt.Println("[]")
		return nil
	}

	if err != nil {
		return errors.Wrap(err, "could not perform query")
	}

	return dump(records, sc.SelectedFields)
}

func dump(records any, fields []string) error {
	var v any = records
	if len(fields) > 0 {
		rows, err := project(records, fields)
		if err != nil {
			return err
		}
		v = rows
	}

	if verbose {
		fmt.Println(litter.Sdump(v))
		return nil
	}

	d, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not dump records")
	}
	fmt.Println(string(d))
	return nil
}

// project keeps only the selected fields of each record.
func project(records any, fields []string) ([]map[string]any, error) {
	rv := reflect.Indirect(reflect.ValueOf(records))

	rows := make([]map[string]any, rv.Len())
	for i := range rows {
		rows[i] = map[string]any{}
		for _, field := range fields {
			v, err := structs.GetField(rv.Index(i).Interface(), field)
			if err != nil {
				return nil, err
			}
			rows[i][field] = v
		}
	}
	return rows, nil
}
