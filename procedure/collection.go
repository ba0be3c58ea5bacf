package procedure

import (
	"fmt"
	"sort"
)

// Collection is a namespaced group of compiled procedures. It is immutable
// after creation; procedure names are unique within the namespace by
// construction (map keys).
type Collection struct {
	namespace  string
	procedures map[string]*CompiledProcedure
	names      []string
}

// NewCollection groups compiled procedures under a namespace. The namespace
// must be non-empty; every entry must have a non-empty name and a non-nil
// procedure.
func NewCollection(namespace string, procedures map[string]*CompiledProcedure) (*Collection, error) {
	if namespace == "" {
		return nil, newBuildError(CodeEmptyNamespace,
			"collection namespace must not be empty",
			"pass the namespace as the first argument")
	}

	copied := make(map[string]*CompiledProcedure, len(procedures))
	names := make([]string, 0, len(procedures))
	for name, proc := range procedures {
		if name == "" {
			return nil, newBuildError(CodeEmptyProcedureName,
				fmt.Sprintf("namespace %q has a procedure with an empty name", namespace),
				"give every procedure a non-empty name")
		}
		if proc == nil {
			return nil, newBuildError(CodeNilProcedure,
				fmt.Sprintf("procedure %s.%s is nil", namespace, name),
				"compile the procedure before adding it to a collection")
		}
		copied[name] = proc
		names = append(names, name)
	}
	sort.Strings(names)

	return &Collection{
		namespace:  namespace,
		procedures: copied,
		names:      names,
	}, nil
}

// MustNewCollection is NewCollection for package-level declarations,
// panicking on definition errors.
func MustNewCollection(namespace string, procedures map[string]*CompiledProcedure) *Collection {
	c, err := NewCollection(namespace, procedures)
	if err != nil {
		panic(err)
	}
	return c
}

// Namespace returns the collection's namespace
func (c *Collection) Namespace() string {
	return c.namespace
}

// Procedure looks up a compiled procedure by name
func (c *Collection) Procedure(name string) (*CompiledProcedure, bool) {
	p, ok := c.procedures[name]
	return p, ok
}

// Names returns the sorted procedure names
func (c *Collection) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of procedures in the collection
func (c *Collection) Len() int {
	return len(c.procedures)
}
