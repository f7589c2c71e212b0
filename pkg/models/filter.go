package models

// ActiveFilters is the set of screener criteria currently in effect, keyed by
// filter name. An absent key, an empty value, or the string "false" all mean
// the criterion is inactive. All active criteria must pass for a record to be
// included.
type ActiveFilters map[string]string

// Active reports whether the named criterion is switched on.
func (f ActiveFilters) Active(key string) bool {
	v, ok := f[key]
	return ok && v != "" && v != "false"
}

// Clone returns an independent copy of the filter set.
func (f ActiveFilters) Clone() ActiveFilters {
	out := make(ActiveFilters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// SimpleSliders holds the three slider positions of simple screening mode,
// each in the range [0,100].
type SimpleSliders struct {
	Size    int `json:"size"`
	Value   int `json:"value"`
	Quality int `json:"quality"`
}

// ScreenRequest is a full screening query: a filter set plus an optional
// free-text search over symbol, name and sector.
type ScreenRequest struct {
	Filters ActiveFilters `json:"filters"`
	Search  string        `json:"search,omitempty"`
}
