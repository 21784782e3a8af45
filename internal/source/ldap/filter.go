// Package ldap implements the directory-server adapter: an AND/OR logical
// filter builder over RFC 4515 filter strings, and a searcher abstraction
// whose production implementation wraps go-ldap.
package ldap

import (
	"fmt"
	"strings"

	"persondir/internal/source"
)

// Builder accumulates filter clauses under one logical join. The zero/nil
// builder encodes to "" which is the no-query signal; callers must not send
// an empty encoding to the directory.
type Builder struct {
	join    source.Join
	clauses []string
}

// NewBuilder returns an empty builder joining clauses with join.
func NewBuilder(join source.Join) *Builder {
	return &Builder{join: join}
}

// Append adds one clause per value. A value containing '*' becomes a
// substring match, anything else an exact equality match. A nil value is
// encoded as equality on the empty string.
func (b *Builder) Append(attribute string, values []any) *Builder {
	for _, value := range values {
		text := ""
		if value != nil {
			text = fmt.Sprint(value)
		}
		if strings.Contains(text, "*") {
			b.clauses = append(b.clauses, "("+attribute+"="+escapeSubstring(text)+")")
		} else {
			b.clauses = append(b.clauses, "("+attribute+"="+escape(text)+")")
		}
	}
	return b
}

// Encode renders the accumulated filter. An empty builder encodes to "",
// never to an always-true filter.
func (b *Builder) Encode() string {
	if b == nil || len(b.clauses) == 0 {
		return ""
	}
	if len(b.clauses) == 1 {
		return b.clauses[0]
	}
	op := "&"
	if b.join == source.JoinOr {
		op = "|"
	}
	return "(" + op + strings.Join(b.clauses, "") + ")"
}

// escape applies RFC 4515 escaping to a filter assertion value.
func escape(value string) string {
	var sb strings.Builder
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '*':
			sb.WriteString(`\2a`)
		case '(':
			sb.WriteString(`\28`)
		case ')':
			sb.WriteString(`\29`)
		case '\\':
			sb.WriteString(`\5c`)
		case 0:
			sb.WriteString(`\00`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// escapeSubstring escapes like escape but keeps '*' as the wildcard.
func escapeSubstring(value string) string {
	parts := strings.Split(value, "*")
	for i, part := range parts {
		parts[i] = escape(part)
	}
	return strings.Join(parts, "*")
}
