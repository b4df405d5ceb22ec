package pipeline

import (
	"fmt"
	"strings"

	"revenue_backend/internal/revenue/domain"

	"github.com/google/uuid"
)

var (
	firstNames = []string{"Ava", "Noah", "Mia", "Liam", "Emma", "Lucas", "Sofia", "Milan", "Julia", "Sem"}
	lastNames  = []string{"de Vries", "Jansen", "Bakker", "Visser", "Smit", "Meijer", "Mulder", "Bos", "Vos", "Peters"}
	companies  = []string{"northwind", "acme", "globex", "initech", "umbrella", "hooli", "vandelay", "stark"}
)

// ScoreFunc picks a score for the i-th lead of a batch.
type ScoreFunc func(i int) int

// LeadSource produces synthetic lead batches.
type LeadSource struct {
	rnd    Random
	ladder []int64
	score  ScoreFunc
}

// SourceOption customises a LeadSource.
type SourceOption func(*LeadSource)

// WithScores forces the scores of generated leads, cycling through seq.
func WithScores(seq ...int) SourceOption {
	return func(s *LeadSource) {
		if len(seq) == 0 {
			return
		}
		scores := append([]int(nil), seq...)
		s.score = func(i int) int { return scores[i%len(scores)] }
	}
}

// NewLeadSource creates a source drawing from rnd and pricing from ladder.
func NewLeadSource(rnd Random, ladder []int64, opts ...SourceOption) *LeadSource {
	s := &LeadSource{
		rnd:    rnd,
		ladder: append([]int64(nil), ladder...),
	}
	s.score = func(int) int { return domain.MinScore + s.rnd.IntN(domain.MaxScore) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns n new leads. Identical seed and n give identical output.
func (s *LeadSource) Generate(n int) ([]*domain.Lead, error) {
	if n <= 0 {
		return nil, nil
	}
	if len(s.ladder) == 0 {
		return nil, fmt.Errorf("price ladder is empty")
	}

	ids := randomReader{rnd: s.rnd}
	leads := make([]*domain.Lead, 0, n)
	for i := 0; i < n; i++ {
		id, err := uuid.NewRandomFromReader(ids)
		if err != nil {
			return nil, fmt.Errorf("generate lead id: %w", err)
		}

		score := s.score(i)
		price := s.ladder[s.rnd.IntN(len(s.ladder))]
		first := firstNames[s.rnd.IntN(len(firstNames))]
		last := lastNames[s.rnd.IntN(len(lastNames))]
		company := companies[s.rnd.IntN(len(companies))]

		leads = append(leads, &domain.Lead{
			ID:             id.String(),
			Name:           first + " " + last,
			Email:          fmt.Sprintf("%s.%s@%s.example", strings.ToLower(first), strings.ToLower(strings.ReplaceAll(last, " ", "")), company),
			Phone:          fmt.Sprintf("+3161%07d", s.rnd.IntN(10_000_000)),
			Score:          clampScore(score),
			EstimatedValue: price,
			Status:         domain.LeadStatusNew,
			History:        []domain.Channel{},
		})
	}
	return leads, nil
}

func clampScore(score int) int {
	if score < domain.MinScore {
		return domain.MinScore
	}
	if score > domain.MaxScore {
		return domain.MaxScore
	}
	return score
}
