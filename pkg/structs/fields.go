package structs

import (
	"github.com/oleiade/reflections"
	"github.com/pkg/errors"
)

// GetField returns the value of the provided obj field. obj can whether be a structure or pointer to structure.
func GetField(obj any, name string) (any, error) {
	v, err := reflections.GetField(obj, name)
	return v, errors.Wrapf(err, "could not get field %s", name)
}

// SetField sets the provided obj field with provided value.
// obj param has to be a pointer to a struct.
// Provided value type must match the field type, no conversion is performed.
func SetField(obj any, name string, value any) error {
	ok, err := reflections.HasField(obj, name)
	if err != nil {
		return errors.Wrap(err, "could not inspect object")
	}
	if !ok {
		return errors.Errorf("no such field: %s", name)
	}

	return errors.Wrapf(reflections.SetField(obj, name, value), "could not set field %s", name)
}
