package stormsql

import (
	"strings"

	"github.com/oleiade/reflections"
	"github.com/pkg/errors"
)

// A Schema maps table names to the model stored in them.
type Schema map[string]any

// Model returns the model of the given table.
func (s Schema) Model(table string) (any, error) {
	m, ok := s[strings.ToLower(table)]
	if !ok {
		return nil, errors.Errorf("unknown table: %s", table)
	}
	return m, nil
}

// Fields returns the struct field names of the given table indexed by their lowered column name.
// A column is named after the field's json tag and, as a fallback, the field name itself.
func (s Schema) Fields(table string) (map[string]string, error) {
	m, err := s.Model(table)
	if err != nil {
		return nil, err
	}

	names, err := reflections.FieldsDeep(m)
	if err != nil {
		return nil, errors.Wrapf(err, "could not inspect %s", table)
	}

	fields := map[string]string{}
	for _, name := range names {
		fields[strings.ToLower(name)] = name

		tag, err := reflections.GetFieldTag(m, name, "json")
		if err != nil {
			return nil, errors.Wrapf(err, "could not inspect %s.%s", table, name)
		}
		column := strings.Split(tag, ",")[0]
		if column != "" && column != "-" {
			fields[strings.ToLower(column)] = name
		}
	}
	return fields, nil
}
