// Package domain holds the types shared by extraction, reporting and storage.
package domain

// Record is an ordered set of named fields. A field can be present with a
// null value, which is rendered as an empty cell but still counts as a column.
type Record struct {
	names  []string
	values map[string]string
	nulls  map[string]bool
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{
		values: make(map[string]string),
		nulls:  make(map[string]bool),
	}
}

func (r *Record) ensure(name string) {
	if r.values == nil {
		r.values = make(map[string]string)
		r.nulls = make(map[string]bool)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
}

// Set stores a value, keeping the field's original position when it exists.
func (r *Record) Set(name, value string) {
	r.ensure(name)
	r.values[name] = value
	delete(r.nulls, name)
}

// SetNull stores a null value for the field.
func (r *Record) SetNull(name string) {
	r.ensure(name)
	r.values[name] = ""
	r.nulls[name] = true
}

// Get returns the value and whether it is present and non-null.
func (r *Record) Get(name string) (string, bool) {
	if r == nil || r.values == nil {
		return "", false
	}
	v, ok := r.values[name]
	if !ok || r.nulls[name] {
		return "", false
	}
	return v, true
}

// Value returns the value or "" when missing or null.
func (r *Record) Value(name string) string {
	v, _ := r.Get(name)
	return v
}

// Has reports whether the field exists, null or not.
func (r *Record) Has(name string) bool {
	if r == nil || r.values == nil {
		return false
	}
	_, ok := r.values[name]
	return ok
}

// IsNull reports whether the field exists with a null value.
func (r *Record) IsNull(name string) bool {
	return r.Has(name) && r.nulls[name]
}

// Names returns the field names in insertion order.
func (r *Record) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len is the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Empty reports whether the record has no fields.
func (r *Record) Empty() bool {
	return r.Len() == 0
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := NewRecord()
	if r == nil {
		return c
	}
	for _, name := range r.names {
		if r.nulls[name] {
			c.SetNull(name)
		} else {
			c.Set(name, r.values[name])
		}
	}
	return c
}

// Merge copies every field of other into r, appending unknown names.
func (r *Record) Merge(other *Record) {
	if other == nil {
		return
	}
	for _, name := range other.names {
		if other.nulls[name] {
			r.SetNull(name)
		} else {
			r.Set(name, other.values[name])
		}
	}
}

// Field is one name/value pair of a record.
type Field struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// Fields lists the record as pairs; null values have a nil Value.
func (r *Record) Fields() []Field {
	out := make([]Field, 0, r.Len())
	for _, name := range r.Names() {
		f := Field{Name: name}
		if !r.nulls[name] {
			v := r.values[name]
			f.Value = &v
		}
		out = append(out, f)
	}
	return out
}
