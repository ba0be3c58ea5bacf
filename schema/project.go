package schema

// Project filters a data object through a visibility-tagged resource view.
// A field appears in the output iff its declared level is at or below the
// view's level and the field is present in the source data. The input map is
// never mutated; the result is always a fresh map.
func Project(data map[string]any, view *Tagged) map[string]any {
	out := make(map[string]any)
	if data == nil {
		return out
	}
	for _, f := range view.resource.fields {
		if f.Level > view.level {
			continue
		}
		if v, ok := data[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

// ProjectSlice applies Project to every element of a result list.
// Elements that are not object-shaped are passed through untouched.
func ProjectSlice(data []any, view *Tagged) []any {
	out := make([]any, len(data))
	for i, item := range data {
		if m, ok := item.(map[string]any); ok {
			out[i] = Project(m, view)
		} else {
			out[i] = item
		}
	}
	return out
}
