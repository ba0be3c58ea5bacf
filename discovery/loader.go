package discovery

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dphaener/relay/procedure"
	"github.com/dphaener/relay/schema"
)

// Exports is the set of top-level values a loaded file provides, keyed by
// export name. Values that structurally match the collection manifest shape
// become collections; everything else is ignored.
type Exports map[string]any

// Loader turns a file path into its exports. The default ManifestLoader
// decodes YAML and JSON documents; tests and embedders can substitute their
// own loader.
type Loader interface {
	Load(path string) (Exports, error)
}

// ManifestLoader loads YAML/JSON manifest files. JSON is a YAML subset, so
// one decoder covers both extensions.
type ManifestLoader struct{}

// Load reads and decodes one manifest file into its exports
func (ManifestLoader) Load(path string) (Exports, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	exports := make(Exports, len(doc))
	for k, v := range doc {
		exports[k] = v
	}
	return exports, nil
}

// collectionCandidate reports whether an export superficially resembles a
// collection: an object with a namespace string and a procedures field.
// Candidates that fail strict validation are invalid exports; non-candidates
// are silently ignored.
func collectionCandidate(v any) bool {
	m, ok := asStringMap(v)
	if !ok {
		return false
	}
	ns, ok := m["namespace"].(string)
	if !ok || ns == "" {
		return false
	}
	_, hasProcs := m["procedures"]
	return hasProcs
}

// buildCollection strictly validates a candidate export and compiles it into
// a collection, resolving handler names through the registry. With
// allowMissing set, unresolved handler names compile against a placeholder
// that fails at call time; inspection tooling uses this to describe
// manifests without the application's handlers loaded.
func buildCollection(v any, handlers *procedure.HandlerRegistry, allowMissing bool) (*procedure.Collection, error) {
	m, _ := asStringMap(v)
	namespace := m["namespace"].(string)

	procsRaw, ok := asStringMap(m["procedures"])
	if !ok {
		return nil, fmt.Errorf("procedures must be a mapping of name to definition")
	}
	if len(procsRaw) == 0 {
		return nil, fmt.Errorf("procedures mapping is empty")
	}

	compiled := make(map[string]*procedure.CompiledProcedure, len(procsRaw))
	for name, defRaw := range procsRaw {
		proc, err := buildProcedure(name, defRaw, handlers, allowMissing)
		if err != nil {
			return nil, fmt.Errorf("procedure %q: %w", name, err)
		}
		compiled[name] = proc
	}

	return procedure.NewCollection(namespace, compiled)
}

func buildProcedure(name string, defRaw any, handlers *procedure.HandlerRegistry, allowMissing bool) (*procedure.CompiledProcedure, error) {
	def, ok := asStringMap(defRaw)
	if !ok {
		return nil, fmt.Errorf("definition must be a mapping")
	}

	kindStr, _ := def["kind"].(string)
	kind := procedure.Kind(kindStr)
	if !kind.Valid() {
		return nil, fmt.Errorf("kind must be %q or %q, got %q",
			procedure.KindQuery, procedure.KindMutation, kindStr)
	}

	handlerName, _ := def["handler"].(string)
	if handlerName == "" {
		return nil, fmt.Errorf("handler name is required")
	}
	h, err := resolveHandler(handlers, handlerName, allowMissing)
	if err != nil {
		return nil, err
	}

	b := procedure.New()

	if inputRaw, ok := def["input"]; ok {
		s, err := buildObjectSchema(inputRaw)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		b = b.Input(s)
	}
	if outputRaw, ok := def["output"]; ok {
		s, err := buildObjectSchema(outputRaw)
		if err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
		b = b.Output(s)
	}
	if notice, ok := def["deprecated"].(string); ok {
		b = b.Deprecated(notice)
	} else if flag, ok := def["deprecated"].(bool); ok && flag {
		b = b.Deprecated("")
	}

	if kind == procedure.KindQuery {
		return b.Query(h)
	}
	return b.Mutation(h)
}

func resolveHandler(handlers *procedure.HandlerRegistry, name string, allowMissing bool) (procedure.Handler, error) {
	if handlers != nil {
		if h, ok := handlers.Get(name); ok {
			return h, nil
		}
	}
	if !allowMissing {
		if handlers == nil {
			return nil, fmt.Errorf("handler %q cannot be resolved: no handler registry configured", name)
		}
		return nil, fmt.Errorf("handler %q is not registered", name)
	}
	return func(ctx *procedure.Context, input any) (any, error) {
		return nil, fmt.Errorf("handler %q is not bound in this process", name)
	}, nil
}

// buildObjectSchema converts a manifest field list into an object schema.
// Accepted shape: {fields: [{name, type, required}]}.
func buildObjectSchema(raw any) (schema.Schema, error) {
	m, ok := asStringMap(raw)
	if !ok {
		return nil, fmt.Errorf("schema must be a mapping with a fields list")
	}
	fieldsRaw, ok := m["fields"].([]any)
	if !ok {
		return nil, fmt.Errorf("schema must declare a fields list")
	}

	specs := make([]schema.FieldSpec, 0, len(fieldsRaw))
	for i, fRaw := range fieldsRaw {
		f, ok := asStringMap(fRaw)
		if !ok {
			return nil, fmt.Errorf("field %d must be a mapping", i)
		}
		name, _ := f["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		typ, _ := f["type"].(string)
		if typ == "" {
			typ = string(schema.TypeAny)
		}
		required, _ := f["required"].(bool)
		specs = append(specs, schema.FieldSpec{
			Name:     name,
			Type:     schema.Type(typ),
			Required: required,
		})
	}
	return schema.NewObject(specs...), nil
}

// asStringMap normalizes both YAML decoding shapes (map[string]any and
// map[any]any) into a string-keyed map.
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
