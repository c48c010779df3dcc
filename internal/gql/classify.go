package gql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// ErrMalformedQuery is returned when a document cannot be classified.
// It is a client error, never an authorization failure.
var ErrMalformedQuery = errors.New("malformed GraphQL query")

// Operation is the classification of one request: the operation that would
// execute and the top-level fields it selects, in document order.
type Operation struct {
	Type   string // query, mutation or subscription
	Name   string // empty for anonymous operations
	Fields []string
}

// Key joins the field names, e.g. "viewer+group".
func (o Operation) Key() string {
	return strings.Join(o.Fields, "+")
}

// PublicUnder reports whether every selected field is allow-listed.
func (o Operation) PublicUnder(allow AllowList) bool {
	if len(o.Fields) == 0 {
		return false
	}
	for _, f := range o.Fields {
		if !allow.Allows(f) {
			return false
		}
	}
	return true
}

// AllowList holds the top-level fields executable without a viewer.
type AllowList map[string]struct{}

// NewAllowList returns the public fields. Introspection fields are
// added when introspection is enabled.
func NewAllowList(introspection bool) AllowList {
	allow := AllowList{"signup": {}, "login": {}}
	if introspection {
		for _, f := range []string{"__schema", "__type", "__typename"} {
			allow[f] = struct{}{}
		}
	}
	return allow
}

// Allows reports whether field is public.
func (a AllowList) Allows(field string) bool {
	_, ok := a[field]
	return ok
}

// Classify parses query and extracts the operation that would run.
// When operationName is empty the document must hold exactly one operation.
func Classify(query, operationName string) (Operation, error) {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return Operation{}, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}

	var ops []*ast.OperationDefinition
	fragments := make(map[string]*ast.FragmentDefinition)
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.OperationDefinition:
			ops = append(ops, d)
		case *ast.FragmentDefinition:
			if d.Name != nil {
				fragments[d.Name.Value] = d
			}
		}
	}

	op, err := selectOperation(ops, operationName)
	if err != nil {
		return Operation{}, err
	}

	c := &collector{fragments: fragments, visiting: make(map[string]bool)}
	if err := c.collect(op.SelectionSet); err != nil {
		return Operation{}, err
	}
	if len(c.fields) == 0 {
		return Operation{}, fmt.Errorf("%w: no fields selected", ErrMalformedQuery)
	}

	return Operation{
		Type:   op.Operation,
		Name:   nameOf(op),
		Fields: c.fields,
	}, nil
}

func selectOperation(ops []*ast.OperationDefinition, operationName string) (*ast.OperationDefinition, error) {
	if operationName == "" {
		switch len(ops) {
		case 0:
			return nil, fmt.Errorf("%w: no operation", ErrMalformedQuery)
		case 1:
			return ops[0], nil
		default:
			return nil, fmt.Errorf("%w: operation name required for %d operations", ErrMalformedQuery, len(ops))
		}
	}
	for _, op := range ops {
		if nameOf(op) == operationName {
			return op, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown operation %q", ErrMalformedQuery, operationName)
}

func nameOf(op *ast.OperationDefinition) string {
	if op.Name == nil {
		return ""
	}
	return op.Name.Value
}

// collector gathers top-level field names through fragments.
type collector struct {
	fragments map[string]*ast.FragmentDefinition
	visiting  map[string]bool
	fields    []string
}

func (c *collector) collect(set *ast.SelectionSet) error {
	if set == nil {
		return nil
	}
	for _, sel := range set.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			// Aliases are ignored: authorization depends on the field itself.
			if s.Name != nil {
				c.fields = append(c.fields, s.Name.Value)
			}
		case *ast.InlineFragment:
			if err := c.collect(s.SelectionSet); err != nil {
				return err
			}
		case *ast.FragmentSpread:
			if s.Name == nil {
				return fmt.Errorf("%w: unnamed fragment spread", ErrMalformedQuery)
			}
			name := s.Name.Value
			frag, ok := c.fragments[name]
			if !ok {
				return fmt.Errorf("%w: unknown fragment %q", ErrMalformedQuery, name)
			}
			if c.visiting[name] {
				return fmt.Errorf("%w: fragment cycle through %q", ErrMalformedQuery, name)
			}
			c.visiting[name] = true
			if err := c.collect(frag.SelectionSet); err != nil {
				return err
			}
			c.visiting[name] = false
		}
	}
	return nil
}
