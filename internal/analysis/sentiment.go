package analysis

import (
	"civicdesk/backend/internal/models"

	"github.com/jonreiter/govader"
)

// Scorer assigns a polarity score to a text. Positive means favourable.
type Scorer interface {
	Score(text string) float64
}

// SentimentCounts is the number of posts per polarity bucket.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total returns the number of bucketed posts.
func (s SentimentCounts) Total() int {
	return s.Positive + s.Neutral + s.Negative
}

// BucketSentiment classifies every post by the sign of its score.
func BucketSentiment(posts []models.CommunityPost, scorer Scorer) SentimentCounts {
	var counts SentimentCounts
	for _, p := range posts {
		switch score := scorer.Score(p.Text); {
		case score > 0:
			counts.Positive++
		case score < 0:
			counts.Negative++
		default:
			counts.Neutral++
		}
	}
	return counts
}

// VaderScorer scores text with the VADER lexicon and returns the compound score.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) Score(text string) float64 {
	return v.analyzer.PolarityScores(text).Compound
}
