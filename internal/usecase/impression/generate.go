package impression

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/serendip/internal/domain"
	domfb "github.com/kailas-cloud/serendip/internal/domain/feedback"
)

//go:embed prompt.tmpl
var promptSource string

var promptTemplate = template.Must(template.New("impression").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
}).Parse(promptSource))

// group is the feedback texts of one context, in arrival order.
type group struct {
	Context string
	Texts   []string
}

// groupByContext buckets feedback by opportunity type, ordered by first appearance.
func groupByContext(items []domfb.Feedback) []group {
	var out []group
	index := make(map[string]int)
	for i := range items {
		ctx := items[i].Context().String()
		pos, ok := index[ctx]
		if !ok {
			pos = len(out)
			index[ctx] = pos
			out = append(out, group{Context: ctx})
		}
		out[pos].Texts = append(out[pos].Texts, items[i].Text())
	}
	return out
}

func buildPrompt(groups []group) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, struct{ Groups []group }{groups}); err != nil {
		return "", fmt.Errorf("render impression prompt: %w", err)
	}
	return b.String(), nil
}

type reply struct {
	Summary   string            `json:"summary"    validate:"required,max=4000"`
	ByContext map[string]string `json:"by_context" validate:"dive,required,max=1000"`
}

// parseReply decodes the generator output. Context keys without feedback are dropped.
func parseReply(raw string, groups []group, v *validator.Validate) (summary string, byContext map[string]string, err error) {
	var r reply
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &r); err != nil {
		return "", nil, fmt.Errorf("%w: decode: %w", domain.ErrMalformedOracleResponse, err)
	}
	if err := v.Struct(&r); err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrMalformedOracleResponse, err)
	}

	present := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		present[g.Context] = struct{}{}
	}
	byContext = make(map[string]string, len(r.ByContext))
	for k, text := range r.ByContext {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, ok := present[key]; !ok {
			continue
		}
		byContext[key] = strings.TrimSpace(text)
	}
	return strings.TrimSpace(r.Summary), byContext, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
