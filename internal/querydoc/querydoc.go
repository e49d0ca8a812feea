// Package querydoc reads query documents: YAML descriptions of a read.
//
// A document names a model, whether it reads one record or many, and what to
// select:
//
//	name: authors
//	model: User
//	many: true
//	where: {active: true}
//	order_by: [{field: name, desc: true}]
//	first: 10
//	select: [name, email]
//	lists: [tags]
//	include:
//	  posts:
//	    where: {published: true}
//	    select: [title]
//	  profile:
//	    name: about
//	    select: [bio]
//
// Documents are validated against an embedded JSON Schema before decoding,
// then converted into executor queries with values typed by the model schema.
package querydoc

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed query.schema.json
var documentSchemaJSON string

var documentSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchemaJSON))
})

// Document is a top-level read.
type Document struct {
	Name  string `yaml:"name,omitempty"`
	Model string `yaml:"model"`

	// Many selects a collection read; otherwise at most one record is read.
	Many bool `yaml:"many,omitempty"`

	Block `yaml:",inline"`
}

// Block holds the filter, page window and selection shared by documents and
// their included relations.
type Block struct {
	// Where maps fields to a value (equality) or a list of values (membership).
	Where   map[string]any `yaml:"where,omitempty"`
	OrderBy []Order        `yaml:"order_by,omitempty"`
	Skip    int            `yaml:"skip,omitempty"`
	First   *int           `yaml:"first,omitempty"`
	Last    *int           `yaml:"last,omitempty"`
	After   any            `yaml:"after,omitempty"`
	Before  any            `yaml:"before,omitempty"`

	Select  []string            `yaml:"select,omitempty"`
	Lists   []string            `yaml:"lists,omitempty"`
	Include map[string]*Include `yaml:"include,omitempty"`
}

// Include reads a relation of the enclosing block's model. A nil Include
// selects only the related ids.
type Include struct {
	Name  string `yaml:"name,omitempty"`
	Block `yaml:",inline"`
}

// Order orders a read by one field.
type Order struct {
	Field string `yaml:"field"`
	Desc  bool   `yaml:"desc,omitempty"`
}

// ValidationError reports why a document was rejected.
type ValidationError struct {
	Source   string // File path, when loaded from disk
	Problems []string
}

func (e *ValidationError) Error() string {
	msg := strings.Join(e.Problems, "; ")
	if e.Source != "" {
		return fmt.Sprintf("query document %s: %s", e.Source, msg)
	}
	return "query document: " + msg
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Parse validates and decodes a query document.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if raw == nil {
		return nil, &ValidationError{Problems: []string{"document is empty"}}
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and parses a query document file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Source = path
			return nil, ve
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func validate(raw any) error {
	schema, err := documentSchema()
	if err != nil {
		return fmt.Errorf("compile document schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ValidationError{Problems: problems}
}
