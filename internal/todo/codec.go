package todo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tasklist-go/internal/utils"
)

//go:embed tasks.schema.json
var schemaJSON string

const schemaURL = "https://github.com/nibzard/tasklist-go/tasks.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the JSON Schema that slot payloads must satisfy.
func Schema() string {
	return schemaJSON
}

// Encode serializes tasks as a compact JSON array. A nil collection encodes
// as "[]".
func Encode(tasks Collection) ([]byte, error) {
	if tasks == nil {
		tasks = Collection{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal task list: %w", err)
	}
	return data, nil
}

// Decode parses and validates a slot payload. A blank payload decodes to an
// empty collection.
func Decode(data []byte) (Collection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Collection{}, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	var tasks Collection
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode task list: %w", err)
	}
	if tasks == nil {
		tasks = Collection{}
	}
	return tasks, nil
}

// Validate checks a decoded JSON document against the payload schema. All
// violations are returned joined, each as a *ValidationError.
func Validate(doc any) error {
	schema, err := loadSchema()
	if err != nil {
		// The embedded schema always compiles; keep a structural check in
		// case it is ever edited into an invalid state.
		return validateMinimal(doc)
	}
	if err := schema.Validate(doc); err != nil {
		return schemaErrors(err)
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

func schemaErrors(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var errs []error
	collectSchemaErrors(&errs, ve)
	if len(errs) == 0 {
		return &ValidationError{Err: errors.New(ve.Message)}
	}
	return errors.Join(errs...)
}

func collectSchemaErrors(errs *[]error, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(errs, cause)
	}
}

// validateMinimal performs the structural checks without JSON Schema.
func validateMinimal(doc any) error {
	items, ok := doc.([]any)
	if !ok {
		return &ValidationError{Err: fmt.Errorf("expected array, got %s", jsonType(doc))}
	}
	var errs []error
	for i, item := range items {
		path := fmt.Sprintf("[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Err: fmt.Errorf("expected object, got %s", jsonType(item))})
			continue
		}
		if id, _ := obj["id"].(string); id == "" {
			errs = append(errs, &ValidationError{Path: path + ".id", Err: errors.New("missing required field")})
		}
		if text, _ := obj["text"].(string); strings.TrimSpace(text) == "" {
			errs = append(errs, &ValidationError{Path: path + ".text", Err: errors.New("missing required field")})
		}
		if v, present := obj["completed"]; present {
			if _, ok := v.(bool); !ok {
				errs = append(errs, &ValidationError{Path: path + ".completed", Err: fmt.Errorf("expected boolean, got %s", jsonType(v))})
			}
		}
	}
	return errors.Join(errs...)
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
