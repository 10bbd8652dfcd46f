package state

// Filter describes one selectable classification button. Matching logic
// is supplied by the system adapter; the core only stores the
// presentation fields and optional resource counters.
type Filter struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Symbol string `json:"symbol"`
	Color  string `json:"color"`
	Value  *int   `json:"value,omitempty"`
	Max    *int   `json:"max,omitempty"`
}

// Clone returns a detached copy of the filter.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return nil
	}
	clone := *f
	if f.Value != nil {
		v := *f.Value
		clone.Value = &v
	}
	if f.Max != nil {
		m := *f.Max
		clone.Max = &m
	}
	return &clone
}
