package opportunity

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/serendip/internal/domain"
)

// Type classifies an opportunity. Matching only compares the string form,
// so new kinds are added by declaring a constant and listing it in knownTypes.
type Type string

// Known opportunity types.
const (
	TypeJob           Type = "job"
	TypeProject       Type = "project"
	TypeHelp          Type = "help"
	TypeCollaboration Type = "collaboration"
	TypeDate          Type = "date"
	TypeFun           Type = "fun"
)

var knownTypes = []Type{TypeJob, TypeProject, TypeHelp, TypeCollaboration, TypeDate, TypeFun}

var aliases = map[string]Type{
	"collab": TypeCollaboration,
}

// Types returns every known type in declaration order.
func Types() []Type {
	out := make([]Type, len(knownTypes))
	copy(out, knownTypes)
	return out
}

// ParseType normalizes s (case, whitespace, aliases) and checks it is known.
func ParseType(s string) (Type, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if t, ok := aliases[norm]; ok {
		return t, nil
	}
	for _, t := range knownTypes {
		if string(t) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown opportunity type %q", domain.ErrInvalidInput, s)
}

// ParseTypes parses a list, dropping duplicates while keeping order.
func ParseTypes(values []string) ([]Type, error) {
	out := make([]Type, 0, len(values))
	seen := make(map[Type]struct{}, len(values))
	for _, v := range values {
		t, err := ParseType(v)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// String implements fmt.Stringer.
func (t Type) String() string { return string(t) }
