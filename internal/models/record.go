package models

// Record is one raw observation returned by a source adapter: a ransomware
// victim listing, a forum post, an IOC feed entry. Fields holds the named
// text fields eligible for pattern matching; Raw carries the original
// payload and becomes the alert's investigation context.
type Record struct {
	Fields map[string]string
	Raw    map[string]any
}

// Field returns the named text field, or "" when absent.
func (r Record) Field(name string) string {
	return r.Fields[name]
}
