package selection

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/hickar/mailcore/internal/app/email"
	"github.com/hickar/mailcore/internal/app/render"
)

// Filter reports whether a message matches a parsed filter expression.
type Filter func(m *email.Message) bool

/*
	Filter syntax

	Expression:
		Expression || Term
		Term

	Term:
		Term && Primary
		Primary

	Primary:
		TraitToken
		FieldToken == String
		FieldToken != String
		!Primary
		( Expression )

	Fields are BODY, ATTACHMENT, TYPE or any header name. Comparisons are
	case-insensitive substring matches, except TYPE which matches a part
	content-type exactly.
*/

// ParseFilter compiles expr, e.g. `ATTACHMENTS && FROM == 'alice'`.
func ParseFilter(expr string) (Filter, error) {
	filterExpr := []rune(expr)

	filter, i, err := parseFilterExpression(filterExpr, 0)
	if err != nil {
		return nil, err
	}

	i = skipSpaces(filterExpr, i)
	if i < len(filterExpr) {
		return nil, fmt.Errorf("unexpected '%c' at position %d", filterExpr[i], i)
	}

	return filter, nil
}

// Match returns the indexes of the listed messages accepted by f.
func (l *List) Match(f Filter) []int {
	var matched []int
	for idx, m := range l.Messages() {
		if f(m) {
			matched = append(matched, idx)
		}
	}
	return matched
}

func parseFilterExpression(filterExpr []rune, i int) (Filter, int, error) {
	filter, i, err := parseFilterTerm(filterExpr, i)
	if err != nil {
		return nil, i, err
	}

	for {
		i = skipSpaces(filterExpr, i)
		if i >= len(filterExpr) || filterExpr[i] != '|' {
			return filter, i, nil
		}

		if i, err = parseFilterBoolOp(filterExpr, i+1, '|'); err != nil {
			return nil, i, err
		}

		var t Filter
		if t, i, err = parseFilterTerm(filterExpr, i); err != nil {
			return nil, i, err
		}
		filter = orFilter(filter, t)
	}
}

func parseFilterTerm(filterExpr []rune, i int) (Filter, int, error) {
	filter, i, err := parseFilterPrimary(filterExpr, i)
	if err != nil {
		return nil, i, err
	}

	for {
		i = skipSpaces(filterExpr, i)
		if i >= len(filterExpr) || filterExpr[i] != '&' {
			return filter, i, nil
		}

		if i, err = parseFilterBoolOp(filterExpr, i+1, '&'); err != nil {
			return nil, i, err
		}

		var t Filter
		if t, i, err = parseFilterPrimary(filterExpr, i); err != nil {
			return nil, i, err
		}
		filter = andFilter(filter, t)
	}
}

func parseFilterPrimary(filterExpr []rune, i int) (Filter, int, error) {
	i = skipSpaces(filterExpr, i)
	if i >= len(filterExpr) {
		return nil, i, errors.New("unexpected end of filter")
	}

	switch filterExpr[i] {
	case '!':
		t, i, err := parseFilterPrimary(filterExpr, i+1)
		if err != nil {
			return nil, i, err
		}
		return notFilter(t), i, nil

	case '(':
		t, i, err := parseFilterExpression(filterExpr, i+1)
		if err != nil {
			return nil, i, err
		}

		i = skipSpaces(filterExpr, i)
		if i >= len(filterExpr) || filterExpr[i] != ')' {
			return nil, i, errors.New("missing closing parenthesis")
		}
		return t, i + 1, nil
	}

	token, i := parseFilterToken(filterExpr, i)
	if token == "" {
		return nil, i, fmt.Errorf("expected token at position %d", i)
	}

	token = strings.ToUpper(token)
	if trait, ok := traitTokens[token]; ok {
		return trait, i, nil
	}

	i = skipSpaces(filterExpr, i)
	if i >= len(filterExpr) || (filterExpr[i] != '=' && filterExpr[i] != '!') {
		return nil, i, fmt.Errorf("unknown trait %q", token)
	}

	negate, i, err := parseFilterCmpOp(filterExpr, i+1, filterExpr[i])
	if err != nil {
		return nil, i, err
	}

	value, i, err := parseFilterQuotedToken(filterExpr, i)
	if err != nil {
		return nil, i, err
	}

	filter := fieldFilter(token, value)
	if negate {
		filter = notFilter(filter)
	}
	return filter, i, nil
}

func parseFilterToken(filterExpr []rune, i int) (string, int) {
	var sb strings.Builder

	for i < len(filterExpr) {
		c := filterExpr[i]

		switch {
		case unicode.IsLetter(c) || c == '-':
			sb.WriteRune(c)
			i++

		default:
			return sb.String(), i
		}
	}

	return sb.String(), i
}

func parseFilterQuotedToken(filterExpr []rune, i int) (string, int, error) {
	var sb strings.Builder
	var startQuote rune

	for i < len(filterExpr) {
		c := filterExpr[i]

		switch {
		case startQuote == 0 && (c == '\'' || c == '"'):
			startQuote = c
			i++

		case startQuote == 0 && unicode.IsSpace(c):
			i++

		case startQuote == 0:
			return "", i, fmt.Errorf("expected starting quote but got '%c'", c)

		case c != startQuote:
			sb.WriteRune(c)
			i++

		default:
			return sb.String(), i + 1, nil
		}
	}

	if startQuote != 0 {
		return "", i, errors.New("missing closing quote")
	}

	return "", i, errors.New("missing quoted value")
}

func parseFilterBoolOp(filterExpr []rune, i int, opChar rune) (int, error) {
	if i >= len(filterExpr) {
		return i, errors.New("bool operation parsing stopped unexpectedly")
	}
	if filterExpr[i] != opChar {
		return i, fmt.Errorf("unexpected '%c' token while parsing '%c' bool function", filterExpr[i], opChar)
	}

	return i + 1, nil
}

// parseFilterCmpOp parses the '=' completing "==" or "!=" and reports
// whether the comparison is negated.
func parseFilterCmpOp(filterExpr []rune, i int, opChar rune) (bool, int, error) {
	if i >= len(filterExpr) {
		return false, i, errors.New("compare operation parsing stopped unexpectedly")
	}
	if filterExpr[i] != '=' {
		return false, i, fmt.Errorf("unexpected token '%c'", filterExpr[i])
	}

	return opChar == '!', i + 1, nil
}

func skipSpaces(filterExpr []rune, i int) int {
	for i < len(filterExpr) && unicode.IsSpace(filterExpr[i]) {
		i++
	}
	return i
}

var traitTokens = map[string]Filter{
	"ATTACHMENTS": func(m *email.Message) bool {
		return m.CountAttachments() > 0
	},
	"HTML": func(m *email.Message) bool {
		return m.HasBodyPart("text/html")
	},
	"MULTIPART": func(m *email.Message) bool {
		return m.CountBodyParts() > 1
	},
	"NESTED": func(m *email.Message) bool {
		for _, p := range m.BodyParts() {
			if p.IsNestedMessage() {
				return true
			}
		}
		return false
	},
	"UNDECODED": func(m *email.Message) bool {
		for _, p := range m.BodyParts() {
			if p.Undecoded {
				return true
			}
		}
		return false
	},
	"BROKEN": func(m *email.Message) bool {
		m.CountBodyParts()
		return m.Err() != nil
	},
}

func fieldFilter(field, value string) Filter {
	switch field {
	case "TYPE":
		contentType := strings.ToLower(value)
		return func(m *email.Message) bool {
			return m.HasBodyPart(contentType)
		}

	case "ATTACHMENT":
		return func(m *email.Message) bool {
			for _, name := range m.AttachmentNames() {
				if containsFold(name, value) {
					return true
				}
			}
			return false
		}

	case "BODY":
		return func(m *email.Message) bool {
			body, err := render.BodyText(m)
			return err == nil && containsFold(body, value)
		}

	default:
		return func(m *email.Message) bool {
			header, ok := m.Header(field)
			return ok && containsFold(header, value)
		}
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func andFilter(f1, f2 Filter) Filter {
	return func(m *email.Message) bool { return f1(m) && f2(m) }
}

func orFilter(f1, f2 Filter) Filter {
	return func(m *email.Message) bool { return f1(m) || f2(m) }
}

func notFilter(f Filter) Filter {
	return func(m *email.Message) bool { return !f(m) }
}
