package schema

// Level is a field visibility level. The hierarchy is linear:
// admin sees everything, authenticated sees public and authenticated
// fields, public sees only public fields.
type Level int

const (
	// LevelPublic fields are visible to anonymous callers
	LevelPublic Level = iota
	// LevelAuthenticated fields require an authenticated caller
	LevelAuthenticated
	// LevelAdmin fields require an admin caller
	LevelAdmin
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelPublic:
		return "public"
	case LevelAuthenticated:
		return "authenticated"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseLevel converts a level name to a Level. Unknown names report ok=false.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "public":
		return LevelPublic, true
	case "authenticated":
		return LevelAuthenticated, true
	case "admin":
		return LevelAdmin, true
	}
	return LevelPublic, false
}

// ResourceField is one field of a resource schema with its visibility level
type ResourceField struct {
	Name   string
	Schema Schema
	Level  Level
}

// Resource is a frozen, ordered list of visibility-tagged fields. The three
// tagged views share the underlying field list; they re-label the caller's
// effective level without copying.
type Resource struct {
	fields []ResourceField

	// Tagged views, created once at Build time
	Public        *Tagged
	Authenticated *Tagged
	Admin         *Tagged
}

// Tagged is a resource schema bound to a caller visibility level
type Tagged struct {
	resource *Resource
	level    Level
}

// ResourceBuilder accumulates resource fields in declaration order.
// Each step returns a new builder value; Build freezes the result.
type ResourceBuilder struct {
	fields []ResourceField
}

// NewResource creates an empty resource builder
func NewResource() *ResourceBuilder {
	return &ResourceBuilder{}
}

func (b *ResourceBuilder) with(name string, s Schema, level Level) *ResourceBuilder {
	fields := make([]ResourceField, len(b.fields), len(b.fields)+1)
	copy(fields, b.fields)
	fields = append(fields, ResourceField{Name: name, Schema: s, Level: level})
	return &ResourceBuilder{fields: fields}
}

// PublicField adds a public-visibility field
func (b *ResourceBuilder) PublicField(name string, s Schema) *ResourceBuilder {
	return b.with(name, s, LevelPublic)
}

// AuthenticatedField adds an authenticated-visibility field
func (b *ResourceBuilder) AuthenticatedField(name string, s Schema) *ResourceBuilder {
	return b.with(name, s, LevelAuthenticated)
}

// AdminField adds an admin-visibility field
func (b *ResourceBuilder) AdminField(name string, s Schema) *ResourceBuilder {
	return b.with(name, s, LevelAdmin)
}

// Build freezes the field list and creates the tagged views
func (b *ResourceBuilder) Build() *Resource {
	fields := make([]ResourceField, len(b.fields))
	copy(fields, b.fields)

	r := &Resource{fields: fields}
	r.Public = &Tagged{resource: r, level: LevelPublic}
	r.Authenticated = &Tagged{resource: r, level: LevelAuthenticated}
	r.Admin = &Tagged{resource: r, level: LevelAdmin}
	return r
}

// Fields returns a copy of the resource's ordered field list
func (r *Resource) Fields() []ResourceField {
	out := make([]ResourceField, len(r.fields))
	copy(out, r.fields)
	return out
}

// Level returns the view's effective caller level
func (t *Tagged) Level() Level {
	return t.level
}

// Resource returns the underlying resource schema
func (t *Tagged) Resource() *Resource {
	return t.resource
}

// VisibleFields returns the fields visible at the view's level, in
// declaration order.
func (t *Tagged) VisibleFields() []ResourceField {
	var out []ResourceField
	for _, f := range t.resource.fields {
		if f.Level <= t.level {
			out = append(out, f)
		}
	}
	return out
}
