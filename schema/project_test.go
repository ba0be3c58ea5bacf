package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminLevelData() map[string]any {
	return map[string]any{
		"id":             "1",
		"title":          "hello",
		"email":          "a@example.com",
		"internal_notes": "flagged",
	}
}

func TestProjectHierarchy(t *testing.T) {
	r := testResource()
	data := adminLevelData()

	tests := []struct {
		name string
		view *Tagged
		want map[string]any
	}{
		{
			name: "public sees only public fields",
			view: r.Public,
			want: map[string]any{"id": "1", "title": "hello"},
		},
		{
			name: "authenticated sees public and authenticated fields",
			view: r.Authenticated,
			want: map[string]any{"id": "1", "title": "hello", "email": "a@example.com"},
		},
		{
			name: "admin sees every field",
			view: r.Admin,
			want: data,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Project(data, tt.view))
		})
	}
}

func TestProjectExcludesRestrictedFieldNames(t *testing.T) {
	r := testResource()
	out := Project(adminLevelData(), r.Public)

	// No authenticated or admin field name may survive a public projection
	for _, f := range r.Fields() {
		if f.Level > LevelPublic {
			assert.NotContains(t, out, f.Name)
		}
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	r := testResource()
	data := adminLevelData()

	out := Project(data, r.Public)
	out["injected"] = true

	assert.NotContains(t, data, "injected")
	assert.Equal(t, adminLevelData(), data)
}

func TestProjectNeverInventsFields(t *testing.T) {
	r := testResource()

	// Source missing some declared fields: projection must not add them
	out := Project(map[string]any{"id": "1"}, r.Admin)
	assert.Equal(t, map[string]any{"id": "1"}, out)
}

func TestProjectNilData(t *testing.T) {
	r := testResource()
	out := Project(nil, r.Admin)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestProjectSlice(t *testing.T) {
	r := testResource()
	items := []any{
		adminLevelData(),
		"opaque",
	}

	out := ProjectSlice(items, r.Public)
	require.Len(t, out, 2)
	assert.Equal(t, map[string]any{"id": "1", "title": "hello"}, out[0])
	assert.Equal(t, "opaque", out[1])
}
