package model

import (
	"sort"
	"time"

	"github.com/mdouchement/todolist/pkg/structs"
)

// An Assignable is a model that can be populated from a mapping of attributes.
type Assignable interface {
	Model
	Assign(attribute string, value any) error
	// Complete fills the defaults of the attributes left unassigned
	// and checks the mandatory ones.
	Complete() error
}

// Assign populates m with the given attributes.
// Validated attributes go through their setters.
func Assign(m Assignable, fields map[string]any) error {
	attributes := make([]string, 0, len(fields))
	for attribute := range fields {
		attributes = append(attributes, attribute)
	}
	sort.Strings(attributes)

	for _, attribute := range attributes {
		if err := m.Assign(attribute, fields[attribute]); err != nil {
			return err
		}
	}
	return nil
}

func assignField(m any, attributes map[string]string, attribute string, value any) error {
	field, ok := attributes[attribute]
	if !ok {
		return invalid(attribute, "", "%s is not a known attribute", attribute)
	}

	v, err := normalize(value)
	if err != nil {
		return invalid(attribute, "", "%s has an invalid value: %s", attribute, err)
	}

	if err = structs.SetField(m, field, v); err != nil {
		return invalid(attribute, "", "%s has an invalid value", attribute)
	}
	return nil
}

func normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return (*time.Time)(nil), nil
	case time.Time:
		v = v.UTC()
		return &v, nil
	case *time.Time:
		if v == nil {
			return v, nil
		}
		t := v.UTC()
		return &t, nil
	case string:
		// Timestamps rendered by the API are accepted back.
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
		return v, nil
	}
	return value, nil
}

func stringValue(attribute string, value any) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", invalid(attribute, "", "%s must be a string", attribute)
	}
	return v, nil
}

func int64Value(attribute string, value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			break
		}
		return int64(v), nil
	}
	return 0, invalid(attribute, "", "%s must be an integer", attribute)
}

func boolValue(attribute string, value any) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, invalid(attribute, "", "%s must be a boolean", attribute)
	}
	return v, nil
}
