// Package queries holds the catalog of canned analytical queries that can be
// run through the read-only gateway.
package queries

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artifact-explorer/artifact-explorer/internal/datastore"
	"github.com/artifact-explorer/artifact-explorer/internal/errors"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	ErrQueryNotFound = errors.NewStd("query not found")
	ErrMissingParam  = errors.NewStd("missing query parameter")
	ErrInvalidParam  = errors.NewStd("invalid query parameter")
)

// Parameter types.
const (
	ParamString = "string"
	ParamInt    = "int"
)

// Param describes one positional placeholder of a query.
type Param struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Type        string `yaml:"type" json:"type"`
	// OptionsQuery lists valid choices for the parameter, first column is the value.
	OptionsQuery string `yaml:"options_query" json:"options_query,omitempty"`
}

// Query is one catalog entry.
type Query struct {
	Name     string                       `yaml:"name" json:"name"`
	Title    string                       `yaml:"title" json:"title"`
	SQL      string                       `yaml:"sql" json:"sql"`
	Params   []Param                      `yaml:"params" json:"params,omitempty"`
	Dialects map[datastore.Dialect]string `yaml:"dialects" json:"-"`
}

// Catalog is an ordered, immutable set of queries.
type Catalog struct {
	queries []Query
	byName  map[string]int
}

type catalogFile struct {
	Queries []Query `yaml:"queries"`
}

// Load decodes the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		return nil, catalogError(fmt.Errorf("failed to decode query catalog: %w", err))
	}

	c := &Catalog{byName: make(map[string]int, len(file.Queries))}
	for i := range file.Queries {
		q := &file.Queries[i]
		q.SQL = strings.TrimSpace(q.SQL)
		for d, sql := range q.Dialects {
			q.Dialects[d] = strings.TrimSpace(sql)
		}
		if err := q.validate(); err != nil {
			return nil, catalogError(err)
		}
		if _, dup := c.byName[q.Name]; dup {
			return nil, catalogError(fmt.Errorf("duplicate query name %q", q.Name))
		}
		c.byName[q.Name] = len(c.queries)
		c.queries = append(c.queries, *q)
	}

	return c, nil
}

func catalogError(err error) error {
	return errors.New(err).
		Component("queries").
		Category(errors.CategoryConfiguration).
		Build()
}

func (q *Query) validate() error {
	if q.Name == "" {
		return fmt.Errorf("query without a name")
	}
	if q.SQL == "" {
		return fmt.Errorf("query %q has no sql", q.Name)
	}

	seen := make(map[string]bool, len(q.Params))
	for i := range q.Params {
		p := &q.Params[i]
		if p.Type == "" {
			p.Type = ParamString
		}
		if p.Type != ParamString && p.Type != ParamInt {
			return fmt.Errorf("query %q: param %q has unknown type %q", q.Name, p.Name, p.Type)
		}
		if p.Name == "" || seen[p.Name] {
			return fmt.Errorf("query %q: param names must be unique and non-empty", q.Name)
		}
		seen[p.Name] = true
	}

	if n := placeholders(q.SQL); n != len(q.Params) {
		return fmt.Errorf("query %q: %d placeholders for %d params", q.Name, n, len(q.Params))
	}
	for d, sql := range q.Dialects {
		if d != datastore.DialectMySQL && d != datastore.DialectSQLite {
			return fmt.Errorf("query %q: unknown dialect %q", q.Name, d)
		}
		if n := placeholders(sql); n != len(q.Params) {
			return fmt.Errorf("query %q: %s variant has %d placeholders for %d params", q.Name, d, n, len(q.Params))
		}
	}
	return nil
}

// placeholders counts ? outside single-quoted literals.
func placeholders(sql string) int {
	n := 0
	quoted := false
	for _, r := range sql {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == '?' && !quoted:
			n++
		}
	}
	return n
}

// All returns the queries in catalog order.
func (c *Catalog) All() []Query {
	return slices.Clone(c.queries)
}

// Get looks a query up by name.
func (c *Catalog) Get(name string) (Query, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Query{}, false
	}
	return c.queries[i], true
}

// Lookup is Get returning ErrQueryNotFound for unknown names.
func (c *Catalog) Lookup(name string) (Query, error) {
	q, ok := c.Get(name)
	if !ok {
		return Query{}, errors.New(fmt.Errorf("%w: %q", ErrQueryNotFound, name)).
			Component("queries").
			Category(errors.CategoryNotFound).
			Build()
	}
	return q, nil
}

// SQLFor returns the statement text for dialect.
func (q Query) SQLFor(dialect datastore.Dialect) string {
	if sql, ok := q.Dialects[dialect]; ok {
		return sql
	}
	return q.SQL
}

// Bind resolves the statement for dialect and converts args into positional
// parameters in declaration order.
func (q Query) Bind(args map[string]string, dialect datastore.Dialect) (string, []any, error) {
	params := make([]any, 0, len(q.Params))
	for _, p := range q.Params {
		raw, ok := args[p.Name]
		if !ok || strings.TrimSpace(raw) == "" {
			return "", nil, paramError(fmt.Errorf("%w: %s (%s)", ErrMissingParam, p.Name, p.Description), q.Name)
		}

		switch p.Type {
		case ParamInt:
			v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return "", nil, paramError(fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidParam, p.Name, raw), q.Name)
			}
			params = append(params, v)
		default:
			params = append(params, raw)
		}
	}

	for name := range args {
		if !slices.ContainsFunc(q.Params, func(p Param) bool { return p.Name == name }) {
			return "", nil, paramError(fmt.Errorf("%w: %s is not a parameter of this query", ErrInvalidParam, name), q.Name)
		}
	}

	return q.SQLFor(dialect), params, nil
}

func paramError(err error, query string) error {
	return errors.New(err).
		Component("queries").
		Category(errors.CategoryValidation).
		Context("query", query).
		Build()
}
