package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResource() *Resource {
	return NewResource().
		PublicField("id", NewObject()).
		PublicField("title", NewObject()).
		AuthenticatedField("email", NewObject()).
		AdminField("internal_notes", NewObject()).
		Build()
}

func TestResourceBuilderOrder(t *testing.T) {
	r := testResource()

	fields := r.Fields()
	require.Len(t, fields, 4)
	assert.Equal(t, "id", fields[0].Name)
	assert.Equal(t, "internal_notes", fields[3].Name)
	assert.Equal(t, LevelAdmin, fields[3].Level)
}

func TestResourceBuilderStepsAreImmutable(t *testing.T) {
	base := NewResource().PublicField("id", NewObject())
	withEmail := base.AuthenticatedField("email", NewObject())

	assert.Len(t, base.Build().Fields(), 1)
	assert.Len(t, withEmail.Build().Fields(), 2)
}

func TestTaggedViewsShareFieldList(t *testing.T) {
	r := testResource()

	// Views re-label the same resource rather than copying it
	assert.Same(t, r, r.Public.Resource())
	assert.Same(t, r, r.Authenticated.Resource())
	assert.Same(t, r, r.Admin.Resource())

	assert.Equal(t, LevelPublic, r.Public.Level())
	assert.Equal(t, LevelAuthenticated, r.Authenticated.Level())
	assert.Equal(t, LevelAdmin, r.Admin.Level())
}

func TestVisibleFields(t *testing.T) {
	r := testResource()

	names := func(fields []ResourceField) []string {
		var out []string
		for _, f := range fields {
			out = append(out, f.Name)
		}
		return out
	}

	assert.Equal(t, []string{"id", "title"}, names(r.Public.VisibleFields()))
	assert.Equal(t, []string{"id", "title", "email"}, names(r.Authenticated.VisibleFields()))
	assert.Equal(t, []string{"id", "title", "email", "internal_notes"}, names(r.Admin.VisibleFields()))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "public", LevelPublic.String())
	assert.Equal(t, "authenticated", LevelAuthenticated.String())
	assert.Equal(t, "admin", LevelAdmin.String())
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("admin")
	require.True(t, ok)
	assert.Equal(t, LevelAdmin, l)

	_, ok = ParseLevel("root")
	assert.False(t, ok)
}
