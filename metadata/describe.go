// Package metadata produces machine-readable API descriptions from compiled
// procedure collections and holds them in a process-wide, write-once
// registry for introspection tooling.
package metadata

import (
	"encoding/json"
	"sort"

	"github.com/dphaener/relay/dispatch"
	"github.com/dphaener/relay/procedure"
	"github.com/dphaener/relay/schema"
)

// APIDescription describes every procedure exposed by an application
type APIDescription struct {
	Collections []CollectionDescription `json:"collections"`
}

// CollectionDescription describes one namespace
type CollectionDescription struct {
	Namespace  string                 `json:"namespace"`
	Procedures []ProcedureDescription `json:"procedures"`
}

// ProcedureDescription describes one procedure: its wire bindings under both
// conventions, contract shapes, guard chain, and deprecation status.
type ProcedureDescription struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	RPCPath    string `json:"rpc_path"`
	Deprecated bool   `json:"deprecated"`
	Notice     string `json:"notice,omitempty"`

	Guards      []string           `json:"guards,omitempty"`
	Middlewares []string           `json:"middlewares,omitempty"`
	Input       []schema.FieldSpec `json:"input,omitempty"`
	Output      []schema.FieldSpec `json:"output,omitempty"`
}

// Describe builds an API description for the given collections. Routing
// honors the same override table convention dispatch uses; deprecation
// metadata propagates without touching runtime behavior. Output ordering is
// deterministic: namespaces and procedure names are sorted.
func Describe(collections []*procedure.Collection, overrides dispatch.Overrides) *APIDescription {
	sorted := make([]*procedure.Collection, len(collections))
	copy(sorted, collections)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Namespace() < sorted[j].Namespace()
	})

	desc := &APIDescription{}
	for _, c := range sorted {
		cd := CollectionDescription{Namespace: c.Namespace()}
		for _, name := range c.Names() {
			p, _ := c.Procedure(name)
			cd.Procedures = append(cd.Procedures, describeProcedure(c.Namespace(), name, p, overrides))
		}
		desc.Collections = append(desc.Collections, cd)
	}
	return desc
}

func describeProcedure(namespace, name string, p *procedure.CompiledProcedure, overrides dispatch.Overrides) ProcedureDescription {
	route := dispatch.Resolve(namespace, name, p.Kind(), overrides)
	deprecated, notice := p.Deprecated()

	pd := ProcedureDescription{
		Name:       name,
		Kind:       string(p.Kind()),
		Method:     route.Method,
		Path:       route.Path,
		RPCPath:    namespace + "." + name,
		Deprecated: deprecated,
		Notice:     notice,
	}

	for _, g := range p.Guards() {
		pd.Guards = append(pd.Guards, g.Name())
	}
	for _, m := range p.Middlewares() {
		pd.Middlewares = append(pd.Middlewares, m.Name)
	}
	if s := p.InputSchema(); s != nil {
		pd.Input = s.Fields()
	}
	if s := p.OutputSchema(); s != nil {
		pd.Output = s.Fields()
	}
	return pd
}

// JSON renders the description as indented JSON
func (d *APIDescription) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Procedure finds a procedure description by namespace and name
func (d *APIDescription) Procedure(namespace, name string) (*ProcedureDescription, bool) {
	for i := range d.Collections {
		if d.Collections[i].Namespace != namespace {
			continue
		}
		for j := range d.Collections[i].Procedures {
			if d.Collections[i].Procedures[j].Name == name {
				return &d.Collections[i].Procedures[j], true
			}
		}
	}
	return nil, false
}
