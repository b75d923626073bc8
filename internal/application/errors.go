package application

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/volt/internal/domain/model"
)

func secretErr(op, entity string, err error) error {
	return &model.StoreError{Store: model.StoreSecret, Op: op, Entity: entity, Err: err}
}

func metadataErr(op, entity string, err error) error {
	return &model.StoreError{Store: model.StoreMetadata, Op: op, Entity: entity, Err: err}
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, model.ErrNotFound)
}

// textField pairs an input field name with its value for presence checks.
// Secret fields are taken as typed: whitespace is a valid password.
type textField struct {
	name   string
	value  string
	secret bool
}

// requireText returns a ValidationError listing every blank field, or nil.
func requireText(fields ...textField) error {
	var errs []model.FieldError
	for _, f := range fields {
		v := f.value
		if !f.secret {
			v = strings.TrimSpace(v)
		}
		if v == "" {
			errs = append(errs, model.FieldError{Field: f.name, Message: "must not be empty"})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &model.ValidationError{Errors: errs}
}

func entityKey(key string) string { return "secret " + key }

func entityID(kind string, id int64) string { return fmt.Sprintf("%s %d", kind, id) }
