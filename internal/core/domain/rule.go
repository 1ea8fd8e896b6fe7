package domain

import (
	"regexp"
	"strings"
)

// Rule is a routing predicate. Its String form is the textual grammar the proxy
// parses: Host(`h`), PathPrefix(`/p`), joined with && and ||.
type Rule interface {
	String() string
}

// HostMatch matches the request host.
type HostMatch string

func (h HostMatch) String() string { return "Host(`" + string(h) + "`)" }

// PathPrefixMatch matches a request path prefix.
type PathPrefixMatch string

func (p PathPrefixMatch) String() string { return "PathPrefix(`" + string(p) + "`)" }

// AnyOf is a disjunction.
type AnyOf []Rule

func (a AnyOf) String() string { return join(a, " || ") }

// AllOf is a conjunction.
type AllOf []Rule

func (a AllOf) String() string { return join(a, " && ") }

// Grouped wraps a rule in parentheses.
type Grouped struct {
	Rule Rule
}

func (g Grouped) String() string { return "(" + g.Rule.String() + ")" }

func join(rules []Rule, sep string) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.String()
	}
	return strings.Join(parts, sep)
}

var (
	hostPattern       = regexp.MustCompile("^Host\\((?:`([^`]*)`|([^`()]*))\\)$")
	pathPrefixPattern = regexp.MustCompile("^PathPrefix\\((?:`([^`]*)`|([^`()]*))\\)$")
)

// ParseSinglePredicate recovers a rule that consists of exactly one Host or
// PathPrefix predicate. Anything combined with && or || is not recognized.
func ParseSinglePredicate(text string) (Rule, bool) {
	text = strings.TrimSpace(text)
	if v, ok := matchArg(hostPattern, text); ok {
		return HostMatch(v), true
	}
	if v, ok := matchArg(pathPrefixPattern, text); ok {
		return PathPrefixMatch(v), true
	}
	return nil, false
}

func matchArg(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}
