package naming

import "strings"

// URLBuilder composes public URLs for converted images.
type URLBuilder struct {
	BaseURL    string
	PathPrefix string
	Extension  string
}

// Build returns <base>/<prefix>/<name>.<ext>. An empty prefix is omitted.
func (b URLBuilder) Build(name string) string {
	base := strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	prefix := strings.Trim(strings.TrimSpace(b.PathPrefix), "/")
	ext := strings.TrimPrefix(strings.TrimSpace(b.Extension), ".")

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteByte('/')
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteByte('/')
	}
	sb.WriteString(name)
	if ext != "" {
		sb.WriteByte('.')
		sb.WriteString(ext)
	}
	return sb.String()
}
