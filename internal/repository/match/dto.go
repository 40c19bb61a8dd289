package match

import (
	"fmt"
	"strconv"
	"time"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
)

func matchToHash(m *dommatch.Match) map[string]string {
	return map[string]string{
		"id":              m.ID(),
		"opportunity_id":  m.OpportunityID(),
		"person_id":       m.PersonID(),
		"score":           formatFloat(m.Score()),
		"embedding_score": formatFloat(m.EmbeddingScore()),
		"network_score":   formatFloat(m.NetworkScore()),
		"explanation":     m.Explanation(),
		"rank":            strconv.Itoa(m.Rank()),
		"created_at":      strconv.FormatInt(m.CreatedAt().UnixMilli(), 10),
	}
}

func matchFromHash(h map[string]string) (dommatch.Match, error) {
	score, err := strconv.ParseFloat(h["score"], 64)
	if err != nil {
		return dommatch.Match{}, fmt.Errorf("invalid score: %w", err)
	}
	embScore, err := strconv.ParseFloat(h["embedding_score"], 64)
	if err != nil {
		return dommatch.Match{}, fmt.Errorf("invalid embedding_score: %w", err)
	}
	netScore, err := strconv.ParseFloat(h["network_score"], 64)
	if err != nil {
		return dommatch.Match{}, fmt.Errorf("invalid network_score: %w", err)
	}
	rank, err := strconv.Atoi(h["rank"])
	if err != nil {
		return dommatch.Match{}, fmt.Errorf("invalid rank: %w", err)
	}
	createdAt, err := strconv.ParseInt(h["created_at"], 10, 64)
	if err != nil {
		return dommatch.Match{}, fmt.Errorf("invalid created_at: %w", err)
	}

	return dommatch.Reconstruct(
		h["id"], h["opportunity_id"], h["person_id"],
		score, embScore, netScore,
		h["explanation"], rank, time.UnixMilli(createdAt).UTC(),
	), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
