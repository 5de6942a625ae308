package config

import (
	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

// StringArray reads table[key] as an array of strings. itemKind names the
// elements in error messages ("Pattern", "Package", ...). The second return
// value reports whether the key was present.
func StringArray(table map[string]any, key, field, itemKind string) ([]string, bool, error) {
	value, present := table[key]
	if !present {
		return nil, false, nil
	}

	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case []string:
		return append([]string(nil), v...), true, nil
	default:
		return nil, true, dberrors.NotArray(field)
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, true, dberrors.ItemNotString(itemKind, i+1, field)
		}
		out = append(out, s)
	}
	return out, true, nil
}

// StringMap reads table[key] as a mapping of strings to strings.
func StringMap(table map[string]any, key, field string) (map[string]string, bool, error) {
	value, present := table[key]
	if !present {
		return nil, false, nil
	}

	var m map[string]any
	switch v := value.(type) {
	case map[string]any:
		m = v
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true, nil
	default:
		return nil, true, dberrors.NotTable(field)
	}

	out := make(map[string]string, len(m))
	for k, item := range m {
		s, ok := item.(string)
		if !ok {
			return nil, true, dberrors.MappingValueNotString(k, field)
		}
		out[k] = s
	}
	return out, true, nil
}

// Bool reads table[key] as a boolean.
func Bool(table map[string]any, key, field string) (bool, bool, error) {
	value, present := table[key]
	if !present {
		return false, false, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, true, dberrors.NotBoolean(field)
	}
	return b, true, nil
}

// String reads table[key] as a string.
func String(table map[string]any, key, field string) (string, bool, error) {
	value, present := table[key]
	if !present {
		return "", false, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", true, dberrors.NotString(field)
	}
	return s, true, nil
}
