package person

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/serendip/internal/domain"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

// MaxBioLen is the maximum bio length in bytes.
const MaxBioLen = 4000

// Person is a member profile: who they are, what they know, and what they are open to.
type Person struct {
	id        string
	name      string
	bio       string
	skills    []string
	interests []string
	openTo    []opportunity.Type
}

// New validates input and creates a Person. An empty id gets a fresh UUID.
func New(id, name, bio string, skills, interests []string, openTo []opportunity.Type) (Person, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if !idRegex.MatchString(id) {
		return Person{}, fmt.Errorf("%w: person ID must be 1-128 alphanumeric, '_' or '-' characters", domain.ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Person{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	bio = strings.TrimSpace(bio)
	if len(bio) > MaxBioLen {
		return Person{}, fmt.Errorf("%w: bio too long (max %d)", domain.ErrInvalidInput, MaxBioLen)
	}

	return Person{
		id:        id,
		name:      name,
		bio:       bio,
		skills:    cleanTags(skills),
		interests: cleanTags(interests),
		openTo:    slices.Clone(openTo),
	}, nil
}

// Reconstruct creates a Person without validation (storage hydration).
func Reconstruct(id, name, bio string, skills, interests []string, openTo []opportunity.Type) Person {
	return Person{id: id, name: name, bio: bio, skills: skills, interests: interests, openTo: openTo}
}

// ID returns the person identifier.
func (p *Person) ID() string { return p.id }

// Name returns the display name.
func (p *Person) Name() string { return p.name }

// Bio returns the free-text bio.
func (p *Person) Bio() string { return p.bio }

// Skills returns skill tags.
func (p *Person) Skills() []string { return p.skills }

// Interests returns interest tags.
func (p *Person) Interests() []string { return p.interests }

// OpenTo returns the opportunity types the person accepts.
func (p *Person) OpenTo() []opportunity.Type { return p.openTo }

// IsOpenTo reports whether the person accepts opportunities of type t.
func (p *Person) IsOpenTo(t opportunity.Type) bool {
	return slices.Contains(p.openTo, t)
}

// EmbeddingText renders the profile as the text that gets vectorized.
// Empty sections are omitted.
func (p *Person) EmbeddingText() string {
	var parts []string
	if p.bio != "" {
		parts = append(parts, p.bio)
	}
	if len(p.skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(p.skills, ", "))
	}
	if len(p.interests) > 0 {
		parts = append(parts, "Interests: "+strings.Join(p.interests, ", "))
	}
	if len(p.openTo) > 0 {
		types := make([]string, len(p.openTo))
		for i, t := range p.openTo {
			types[i] = string(t)
		}
		parts = append(parts, "Open to: "+strings.Join(types, ", "))
	}
	if len(parts) == 0 {
		return p.name
	}
	return strings.Join(parts, ". ")
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Neighbor is a person returned by a similarity search, scored in [0,1].
type Neighbor struct {
	PersonID string
	Score    float64
}
