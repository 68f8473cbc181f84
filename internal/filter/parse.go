package filter

import (
	"fmt"
	"strings"
)

// ParseRule parses a rule of the form kind:scope:value.
// The scope may be omitted (kind:value), in which case ScopeAll is used.
func ParseRule(s string) (Rule, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 {
		return Rule{}, fmt.Errorf("rule %q: usage: kind[:scope]:value", s)
	}

	kind := Kind(strings.ToLower(strings.TrimSpace(parts[0])))
	switch kind {
	case Include, Exclude, IncludeRe, ExcludeRe:
	default:
		return Rule{}, fmt.Errorf("rule %q: invalid kind %q, use: include, exclude, include_re, exclude_re", s, parts[0])
	}

	scope := ScopeAll
	value := parts[1]
	if len(parts) == 3 {
		switch sc := Scope(strings.ToLower(strings.TrimSpace(parts[1]))); sc {
		case ScopeTitle, ScopeAuthor, ScopeContent, ScopeAll:
			scope = sc
			value = parts[2]
		default:
			// Not a scope: the colon belongs to the value.
			value = parts[1] + ":" + parts[2]
		}
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return Rule{}, fmt.Errorf("rule %q: filter value is required", s)
	}

	r := Rule{Kind: kind, Scope: scope, Value: value}
	if kind == IncludeRe || kind == ExcludeRe {
		re, err := compile(value)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %q: %w", s, err)
		}
		r.re = re
	}
	return r, nil
}

// ParseRules parses a semicolon separated list of rules. Empty entries are ignored.
func ParseRules(s string) ([]Rule, error) {
	var rules []Rule
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseRule(part)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
