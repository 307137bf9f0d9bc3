package util

import (
	"reflect"

	"github.com/pkg/errors"
)

// IsStructInitialized reports an error naming the first nil pointer,
// interface, map or func field of the struct s points to. Fields tagged
// `wire:"-"` are skipped.
func IsStructInitialized(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return errors.New("struct is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.Errorf("expected struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := range v.NumField() {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("wire") == "-" {
			continue
		}

		switch v.Field(i).Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan:
			if v.Field(i).IsNil() {
				return errors.Errorf("%s.%s is not initialized", t.Name(), field.Name)
			}
		default:
		}
	}

	return nil
}
