package ranking

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
)

//go:embed prompt.tmpl
var promptSource string

var promptTemplate = template.Must(template.New("ranking").Funcs(template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": func(items []string) string { return strings.Join(items, ", ") },
}).Parse(promptSource))

type promptCandidate struct {
	ID             string
	Name           string
	Bio            string
	Skills         []string
	Interests      []string
	OpenTo         []string
	EmbeddingScore float64
	NetworkScore   float64
	Shared         []string
}

type promptData struct {
	Title       string
	Description string
	Type        string
	Candidates  []promptCandidate
}

func buildPrompt(opp *opportunity.Opportunity, candidates []dommatch.CandidateScore) (string, error) {
	data := promptData{
		Title:       opp.Title(),
		Description: opp.Description(),
		Type:        opp.Type().String(),
		Candidates:  make([]promptCandidate, len(candidates)),
	}
	for i := range candidates {
		c := &candidates[i]
		openTo := make([]string, len(c.Person.OpenTo()))
		for j, t := range c.Person.OpenTo() {
			openTo[j] = t.String()
		}
		data.Candidates[i] = promptCandidate{
			ID:             c.Person.ID(),
			Name:           c.Person.Name(),
			Bio:            c.Person.Bio(),
			Skills:         c.Person.Skills(),
			Interests:      c.Person.Interests(),
			OpenTo:         openTo,
			EmbeddingScore: c.EmbeddingScore,
			NetworkScore:   c.NetworkScore,
			Shared:         c.SharedConnections,
		}
	}

	var b strings.Builder
	if err := promptTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render ranking prompt: %w", err)
	}
	return b.String(), nil
}
