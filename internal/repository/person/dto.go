package person

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
)

const (
	fieldID        = "id"
	fieldName      = "name"
	fieldBio       = "bio"
	fieldSkills    = "skills"
	fieldInterests = "interests"
	fieldOpenTo    = "open_to"
	fieldVector    = "vector"

	tagSeparator = ","
)

// personToHash converts a domain Person and its embedding to a map for HSET.
// open_to is stored as a TAG list so the index can filter on it.
func personToHash(p *domperson.Person, vector []float32) (map[string]string, error) {
	skills, err := json.Marshal(p.Skills())
	if err != nil {
		return nil, fmt.Errorf("marshal skills: %w", err)
	}
	interests, err := json.Marshal(p.Interests())
	if err != nil {
		return nil, fmt.Errorf("marshal interests: %w", err)
	}

	openTo := make([]string, len(p.OpenTo()))
	for i, t := range p.OpenTo() {
		openTo[i] = t.String()
	}

	return map[string]string{
		fieldID:        p.ID(),
		fieldName:      p.Name(),
		fieldBio:       p.Bio(),
		fieldSkills:    string(skills),
		fieldInterests: string(interests),
		fieldOpenTo:    strings.Join(openTo, tagSeparator),
		fieldVector:    vectorToBytes(vector),
	}, nil
}

// personFromHash hydrates a domain Person from an HGETALL result map.
func personFromHash(m map[string]string) (domperson.Person, error) {
	var skills, interests []string
	if raw := m[fieldSkills]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &skills); err != nil {
			return domperson.Person{}, fmt.Errorf("unmarshal skills: %w", err)
		}
	}
	if raw := m[fieldInterests]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &interests); err != nil {
			return domperson.Person{}, fmt.Errorf("unmarshal interests: %w", err)
		}
	}

	var openTo []opportunity.Type
	for _, t := range strings.Split(m[fieldOpenTo], tagSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			openTo = append(openTo, opportunity.Type(t))
		}
	}

	return domperson.Reconstruct(m[fieldID], m[fieldName], m[fieldBio], skills, interests, openTo), nil
}

// vectorToBytes serializes []float32 as FLOAT32 little-endian, the layout FT.SEARCH expects.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return rueidis.BinaryString(buf)
}
