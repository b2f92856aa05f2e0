package steps

import "net/url"

// View exposes the submitted field values of one step. A field with no
// submitted value returns "" / nil, which extraction treats as "no change".
type View interface {
	Value(name string) string
	Values(name string) []string
}

// Renderer receives the stored values of one step for display.
type Renderer interface {
	SetValue(name, value string)
	SetValues(name string, values []string)
}

// Fields is a url.Values-backed implementation of both View and Renderer,
// matching the form-encoded bodies the HTTP layer hands over.
type Fields struct {
	values url.Values
}

func NewFields(values url.Values) *Fields {
	if values == nil {
		values = url.Values{}
	}
	return &Fields{values: values}
}

func (f *Fields) Value(name string) string {
	return f.values.Get(name)
}

func (f *Fields) Values(name string) []string {
	return f.values[name]
}

func (f *Fields) SetValue(name, value string) {
	f.values.Set(name, value)
}

func (f *Fields) SetValues(name string, values []string) {
	f.values[name] = append([]string(nil), values...)
}

// Encoded returns the form-encoded representation of the fields.
func (f *Fields) Encoded() string {
	return f.values.Encode()
}
