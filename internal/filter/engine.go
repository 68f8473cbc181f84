// Package filter implements the post matching engine applied before display.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"feed_kiosk/internal/model"
)

// Kind defines the type of filter rule.
type Kind string

// Supported filter kinds.
const (
	Include   Kind = "include"
	Exclude   Kind = "exclude"
	IncludeRe Kind = "include_re"
	ExcludeRe Kind = "exclude_re"
)

// Scope defines which part of a post a rule matches against.
type Scope string

// Supported filter scopes.
const (
	ScopeTitle   Scope = "title"
	ScopeAuthor  Scope = "author"
	ScopeContent Scope = "content"
	ScopeAll     Scope = "all"
)

// Rule is a single include or exclude rule.
type Rule struct {
	Kind  Kind
	Scope Scope
	Value string

	re *regexp.Regexp
}

// Match checks whether a post passes the given set of rules.
// If no rules are provided, the post always passes.
// Include rules use OR logic (at least one must match).
// Exclude rules use AND logic (none must match).
func Match(post model.Post, rules []Rule) bool {
	if len(rules) == 0 {
		return true
	}

	hasIncludes := false
	anyIncludeMatched := false

	for _, r := range rules {
		switch r.Kind {
		case Include, IncludeRe:
			hasIncludes = true
			if matchesRule(post, r) {
				anyIncludeMatched = true
			}
		case Exclude, ExcludeRe:
			if matchesRule(post, r) {
				return false
			}
		}
	}

	if hasIncludes && !anyIncludeMatched {
		return false
	}
	return true
}

// Apply returns the posts of queue that pass rules, preserving order.
func Apply(queue []model.Post, rules []Rule) []model.Post {
	if len(rules) == 0 {
		return queue
	}
	out := make([]model.Post, 0, len(queue))
	for _, p := range queue {
		if Match(p, rules) {
			out = append(out, p)
		}
	}
	return out
}

func matchesRule(post model.Post, r Rule) bool {
	text := textForScope(post, r.Scope)
	switch r.Kind {
	case Include, Exclude:
		return strings.Contains(text, strings.ToLower(r.Value))
	case IncludeRe, ExcludeRe:
		re := r.re
		if re == nil {
			var err error
			re, err = compile(r.Value)
			if err != nil {
				return false
			}
		}
		return re.MatchString(text)
	}
	return false
}

func textForScope(post model.Post, scope Scope) string {
	var author string
	if post.Author != nil {
		author = post.Author.Name
	}
	switch scope {
	case ScopeTitle:
		return strings.ToLower(post.Title)
	case ScopeAuthor:
		return strings.ToLower(author)
	case ScopeContent:
		return strings.ToLower(post.Summary)
	default:
		return strings.ToLower(post.Title + " " + author + " " + post.Summary)
	}
}

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return re, nil
}
