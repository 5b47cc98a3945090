package errorbank

import "fmt"

// FieldsDetail is the detail key carrying per-field validation messages.
const FieldsDetail = "fields"

// FieldErrors collects validation messages keyed by field path, e.g. "items[0].price".
type FieldErrors map[string]string

// Add records msg for field unless one is already present.
func (f *FieldErrors) Add(field, msg string) {
	if *f == nil {
		*f = make(FieldErrors)
	}
	if _, ok := (*f)[field]; !ok {
		(*f)[field] = msg
	}
}

// Addf is Add with formatting.
func (f *FieldErrors) Addf(field, format string, args ...any) {
	f.Add(field, fmt.Sprintf(format, args...))
}

// Empty reports whether nothing was recorded.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// BadRequest returns nil when empty, otherwise a bad_request error carrying the fields.
func (f FieldErrors) BadRequest(message string) error {
	if f.Empty() {
		return nil
	}
	return BadRequest(message, WithDetail(FieldsDetail, map[string]string(f)))
}
