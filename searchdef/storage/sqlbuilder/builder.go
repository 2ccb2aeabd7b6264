package sqlbuilder

import (
	"strconv"
	"strings"
)

type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota
	PlaceholderDollar
)

// Builder assembles a statement from fragments while numbering the
// placeholders of its arguments.
type Builder struct {
	Style PlaceholderStyle
	sb    strings.Builder
	args  []any
}

func New(style PlaceholderStyle) *Builder {
	return &Builder{Style: style, args: make([]any, 0)}
}

// Arg records v and returns its placeholder
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	switch b.Style {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(len(b.args))
	default:
		return "?" + strconv.Itoa(len(b.args))
	}
}

// Write appends raw SQL
func (b *Builder) Write(fragment string) *Builder {
	b.sb.WriteString(fragment)
	return b
}

// Where appends " WHERE " or " AND " followed by cond, depending on
// whether a condition was already written.
func (b *Builder) Where(cond string) *Builder {
	if strings.Contains(strings.ToUpper(b.sb.String()), " WHERE ") {
		b.sb.WriteString(" AND ")
	} else {
		b.sb.WriteString(" WHERE ")
	}
	b.sb.WriteString(cond)
	return b
}

func (b *Builder) SQL() string { return b.sb.String() }
func (b *Builder) Args() []any { return b.args }
func (b *Builder) Len() int    { return len(b.args) }
