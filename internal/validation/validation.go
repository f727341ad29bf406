// Package validation checks request payloads against embedded JSON schemas and
// carries the error type used for invalid client input.
package validation

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names of the request bodies accepted by the API.
const (
	Register = "register"
	Question = "question"
	Answer   = "answer"
	Summary  = "summary"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

// Error reports input rejected before it reaches the domain logic.
type Error struct {
	Message string
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

// New returns an *Error with the given message.
func New(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// IsError reports whether err wraps an *Error.
func IsError(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}

func schemas() (map[string]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[string]*gojsonschema.Schema)
		for _, name := range []string{Register, Question, Answer, Summary} {
			data, err := schemaFiles.ReadFile("schemas/" + name + ".json")
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[name] = schema
		}
	})
	return compiled, compileErr
}

// Validate checks a raw JSON document against the named schema.
func Validate(name string, document []byte) error {
	all, err := schemas()
	if err != nil {
		return err
	}

	schema, ok := all[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &Error{Message: "request body must be a JSON object", Details: []string{err.Error()}}
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		details[i] = describe(desc)
	}
	return &Error{Message: details[0], Details: details}
}

func describe(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if field == "" || field == "(root)" {
		return desc.Description()
	}
	if strings.HasPrefix(desc.Description(), field) {
		return desc.Description()
	}
	return field + ": " + desc.Description()
}
