// Package headerauth encodes and decodes Authorization header values of the
// form "<SCHEME> <form-urlencoded params>".
//
// Only the first space separates the scheme from the parameters. Each scheme
// has a JSON Schema describing its parameters; adding a scheme means
// registering a schema, the parse algorithm never changes.
package headerauth

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var schemeTokenRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)

// Credentials is a parsed and schema-validated header value.
type Credentials struct {
	Params map[string]string
	Scheme string
}

// Get returns a parameter value, or "" when absent.
func (c *Credentials) Get(key string) string {
	return c.Params[key]
}

// Codec builds and parses header values against a scheme registry.
// It is safe for concurrent use.
type Codec struct {
	schemas map[string]*gojsonschema.Schema
	mu      sync.RWMutex
}

// NewCodec creates a codec with the APPOAUTH and APPSESS schemes registered.
func NewCodec() *Codec {
	c := &Codec{schemas: make(map[string]*gojsonschema.Schema)}
	for scheme, schema := range defaultSchemes {
		if err := c.Register(scheme, schema); err != nil {
			panic(fmt.Sprintf("headerauth: built-in schema for %s: %v", scheme, err))
		}
	}
	return c
}

// Register adds (or replaces) the parameter schema for a scheme token.
func (c *Codec) Register(scheme string, schema []byte) error {
	if !schemeTokenRegex.MatchString(scheme) {
		return fmt.Errorf("scheme token %q must be uppercase alphanumeric", scheme)
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return fmt.Errorf("failed to compile schema for %s: %w", scheme, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.schemas[scheme] = compiled
	return nil
}

// Schemes returns the registered scheme tokens, sorted.
func (c *Codec) Schemes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.schemas))
	for s := range c.schemas {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (c *Codec) schema(scheme string) (*gojsonschema.Schema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}
	return s, nil
}

// Build serializes params with form-urlencoding and prefixes the scheme.
// The params must satisfy the scheme's schema, so a value produced by Build
// always parses back.
func (c *Codec) Build(scheme string, params map[string]string) (string, error) {
	schema, err := c.schema(scheme)
	if err != nil {
		return "", err
	}
	if err := validate(schema, params); err != nil {
		return "", err
	}

	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return scheme + " " + values.Encode(), nil
}

// Parse decodes a header value that must use the expected scheme.
func (c *Codec) Parse(expected, headerValue string) (*Credentials, error) {
	scheme, encoded, found := strings.Cut(headerValue, " ")
	if !found {
		return nil, fmt.Errorf("%w: missing separator", ErrInvalidScheme)
	}
	if scheme != expected {
		return nil, fmt.Errorf("%w: expected %s", ErrInvalidScheme, expected)
	}

	schema, err := c.schema(expected)
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	params := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) != 1 {
			return nil, fmt.Errorf("%w: parameter %q given %d times", ErrInvalidParams, k, len(vs))
		}
		params[k] = vs[0]
	}

	if err := validate(schema, params); err != nil {
		return nil, err
	}

	return &Credentials{Scheme: scheme, Params: params}, nil
}

func validate(schema *gojsonschema.Schema, params map[string]string) error {
	doc := make(map[string]interface{}, len(params))
	for k, v := range params {
		doc[k] = v
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(messages, "; "))
	}
	return nil
}

var defaultCodec = NewCodec()

// Build uses the default codec.
func Build(scheme string, params map[string]string) (string, error) {
	return defaultCodec.Build(scheme, params)
}

// Parse uses the default codec.
func Parse(expected, headerValue string) (*Credentials, error) {
	return defaultCodec.Parse(expected, headerValue)
}
