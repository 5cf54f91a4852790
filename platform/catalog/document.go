package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/robbyt/go-polygrade/platform/script/loader"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var documentSchema string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("polygrade://catalog/schema.json", documentSchema)
})

// Document is the on-disk form of a catalog: either a list of problems under "problems",
// or a single problem at the top level.
type Document struct {
	Problems []*Problem `json:"problems" yaml:"problems"`
}

// Decode parses a JSON or YAML catalog document. JSON is detected by a leading '{' or '['.
func Decode(data []byte) ([]*Problem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidProblem)
	}

	var raw any
	var err error
	if trimmed[0] == '{' || trimmed[0] == '[' {
		err = decodeJSON(trimmed, &raw)
	} else {
		err = yaml.Unmarshal(trimmed, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}

	// round-trip through JSON so YAML and JSON documents share one set of field rules
	normalized, err := json.Marshal(jsonCompatible(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}
	if err := validateShape(normalized); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}

	var doc Document
	if err := decodeJSON(normalized, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}
	if len(doc.Problems) == 0 {
		var single Problem
		if err := decodeJSON(normalized, &single); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProblem, err)
		}
		doc.Problems = []*Problem{&single}
	}
	return doc.Problems, nil
}

// validateShape checks the document layout against the catalog schema before the
// per-problem field rules run.
func validateShape(normalized []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// jsonCompatible turns the map[string]any / map[any]any trees produced by yaml.v3 into
// values encoding/json accepts.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonCompatible(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonCompatible(val)
		}
		return out
	default:
		return v
	}
}

// DocumentProvider serves the problems of a document read through a loader. The document
// is read and validated on first use; a failed read is retried on the next lookup.
type DocumentProvider struct {
	loader loader.Loader

	mu     sync.Mutex
	static *StaticProvider
}

func NewDocumentProvider(l loader.Loader) *DocumentProvider {
	return &DocumentProvider{loader: l}
}

func (d *DocumentProvider) String() string {
	return fmt.Sprintf("catalog.DocumentProvider{Source: %s}", d.loader.GetSourceURL())
}

func (d *DocumentProvider) GetProblem(ctx context.Context, id string) (*Problem, error) {
	static, err := d.load()
	if err != nil {
		return nil, err
	}
	return static.GetProblem(ctx, id)
}

// IDs lists the problems in the document, sorted.
func (d *DocumentProvider) IDs() ([]string, error) {
	static, err := d.load()
	if err != nil {
		return nil, err
	}
	ids := static.IDs()
	slices.Sort(ids)
	return ids, nil
}

func (d *DocumentProvider) load() (*StaticProvider, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.static != nil {
		return d.static, nil
	}

	data, err := loader.ReadAll(d.loader)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", d.loader.GetSourceURL(), err)
	}
	problems, err := Decode(data)
	if err != nil {
		return nil, err
	}
	// a single-problem file without an id is named after the file
	if len(problems) == 1 && problems[0].ID == "" {
		name := path.Base(d.loader.GetSourceURL().Path)
		problems[0].ID = strings.TrimSuffix(name, path.Ext(name))
	}
	static, err := NewStaticProvider(problems...)
	if err != nil {
		return nil, err
	}
	d.static = static
	return static, nil
}
