package transport

import (
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
)

// URI is one parsed broker address. Composite URIs (failover) carry their
// member URIs in Members and their own options in Options.
type URI struct {
	Raw     string
	Scheme  string
	Host    string
	Port    string
	Options map[string]string
	Members []*URI
}

// Address returns host:port for dialing.
func (u *URI) Address() string { return u.Host + ":" + u.Port }

// String returns the raw form the URI was parsed from.
func (u *URI) String() string { return u.Raw }

// IsComposite reports whether this URI wraps member URIs.
func (u *URI) IsComposite() bool { return len(u.Members) > 0 }

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv substitutes ${VAR} references from the environment, failing if
// any referenced variable is unset.
func ExpandEnv(raw string) (string, error) {
	var missing []string
	expanded := envVarPattern.ReplaceAllStringFunc(raw, func(ref string) string {
		name := ref[2 : len(ref)-1]
		value, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return value
	})
	if len(missing) > 0 {
		return "", errors.Newf(errors.CodeInvalidArgument, "environment variable %s referenced in URI is unset", strings.Join(missing, ", "))
	}
	return expanded, nil
}

// ParseURI parses a broker URI, expanding ${VAR} references first.
// Composite forms like failover://(tcp://a:61616,tcp://b:61616)?opt=v are
// recognized by the parenthesized member list.
func ParseURI(raw string) (*URI, error) {
	expanded, err := ExpandEnv(raw)
	if err != nil {
		return nil, err
	}

	if scheme, rest, ok := splitComposite(expanded); ok {
		return parseComposite(expanded, scheme, rest)
	}

	parsed, err := url.Parse(expanded)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidArgument, "invalid broker URI "+raw, err)
	}
	if parsed.Scheme == "" || !strings.HasPrefix(expanded[len(parsed.Scheme):], "://") {
		return nil, errors.Newf(errors.CodeInvalidArgument, "broker URI %q has no scheme", raw)
	}
	uri := &URI{
		Raw:     expanded,
		Scheme:  parsed.Scheme,
		Host:    parsed.Hostname(),
		Port:    parsed.Port(),
		Options: flattenQuery(parsed.Query()),
	}
	return uri, nil
}

func splitComposite(raw string) (scheme, rest string, ok bool) {
	idx := strings.Index(raw, "://(")
	if idx < 0 {
		return "", "", false
	}
	return raw[:idx], raw[idx+len("://("):], true
}

func parseComposite(raw, scheme, rest string) (*URI, error) {
	closing := strings.LastIndex(rest, ")")
	if closing < 0 {
		return nil, errors.Newf(errors.CodeInvalidArgument, "composite URI %q is missing a closing parenthesis", raw)
	}
	memberList := rest[:closing]
	tail := rest[closing+1:]

	uri := &URI{Raw: raw, Scheme: scheme, Options: map[string]string{}}
	for _, member := range splitMembers(memberList) {
		parsed, err := ParseURI(member)
		if err != nil {
			return nil, err
		}
		uri.Members = append(uri.Members, parsed)
	}
	if len(uri.Members) == 0 {
		return nil, errors.Newf(errors.CodeInvalidArgument, "composite URI %q has no member URIs", raw)
	}

	if strings.HasPrefix(tail, "?") {
		query, err := url.ParseQuery(tail[1:])
		if err != nil {
			return nil, errors.New(errors.CodeInvalidArgument, "invalid options on composite URI "+raw, err)
		}
		uri.Options = flattenQuery(query)
	}
	return uri, nil
}

// splitMembers splits on commas that are not nested inside parentheses, so
// member URIs may themselves carry option lists.
func splitMembers(list string) []string {
	var members []string
	depth := 0
	start := 0
	for i, c := range list {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				members = append(members, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}
	members = append(members, strings.TrimSpace(list[start:]))
	return members
}

func flattenQuery(query url.Values) map[string]string {
	if len(query) == 0 {
		return nil
	}
	options := make(map[string]string, len(query))
	for key, values := range query {
		options[key] = values[len(values)-1]
	}
	return options
}
