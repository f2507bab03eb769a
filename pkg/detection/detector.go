// Package detection proposes duplicate candidate pairings for client records.
// Scoring is pure computation; persistence is handled by the Service wrapper.
package detection

import (
	"sort"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/names"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
)

// DefaultThreshold is the minimum final score for a candidate to be proposed
const DefaultThreshold = 0.7

// Match is one proposed pairing against a client in the pool
type Match struct {
	Client    models.Client
	MatchType models.MatchType
	Score     float64
}

// Detector scores a client against a candidate pool
type Detector struct {
	scorer    *names.Scorer
	threshold float64
}

// NewDetector creates a detector. A threshold of 0 falls back to the default.
func NewDetector(scorer *names.Scorer, threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{
		scorer:    scorer,
		threshold: threshold,
	}
}

// Threshold returns the detector's score cutoff
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// FindCandidates scores the client's full name against every client in the
// pool. The final score per pool member is the max of the similarity score
// and the nickname confidence; the match type records which path won. Only
// matches at or above the threshold are returned, sorted by score descending
// with pool order as the stable tie-break.
func (d *Detector) FindCandidates(client *models.Client, pool []models.Client) []Match {
	fullName := client.FullName()

	var matches []Match
	for _, existing := range pool {
		if existing.ID == client.ID {
			continue
		}

		score := d.scorer.Similarity(fullName, existing.FullName())
		matchType := models.MatchTypeSimilarity

		if isNickname, confidence := d.scorer.NicknameMatch(fullName, existing.FullName()); isNickname && confidence > score {
			score = confidence
			matchType = models.MatchTypeNickname
		}

		if score >= d.threshold {
			matches = append(matches, Match{
				Client:    existing,
				MatchType: matchType,
				Score:     score,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// FindExactMatches proposes pairings on definitional identifiers: same
// normalized email, same normalized phone, or same normalized name plus date
// of birth. At most one match is reported per pool member; email wins over
// phone wins over name+dob.
func (d *Detector) FindExactMatches(client *models.Client, pool []models.Client) []Match {
	email := ""
	if client.Email != nil {
		email = normalizers.NormalizeEmail(*client.Email)
	}
	phone := ""
	if client.Phone != nil {
		phone = normalizers.NormalizePhone(*client.Phone)
	}
	name := normalizers.NormalizeName(client.FullName())

	var matches []Match
	for _, existing := range pool {
		if existing.ID == client.ID {
			continue
		}

		switch {
		case email != "" && existing.Email != nil && normalizers.NormalizeEmail(*existing.Email) == email:
			matches = append(matches, Match{Client: existing, MatchType: models.MatchTypeExactEmail, Score: 1.0})
		case phone != "" && existing.Phone != nil && normalizers.NormalizePhone(*existing.Phone) == phone:
			matches = append(matches, Match{Client: existing, MatchType: models.MatchTypeExactPhone, Score: 1.0})
		case name != "" && client.DateOfBirth != nil && existing.DateOfBirth != nil &&
			client.DateOfBirth.Equal(*existing.DateOfBirth) &&
			normalizers.NormalizeName(existing.FullName()) == name:
			matches = append(matches, Match{Client: existing, MatchType: models.MatchTypeNameDOB, Score: 1.0})
		}
	}

	return matches
}

// ShouldWarn reports whether a data-entry form should warn about likely
// duplicates before saving. Records carrying a direct identifier (email or
// phone) never warn: exact matching covers them. Otherwise warn iff at least
// one fuzzy candidate clears the threshold.
func (d *Detector) ShouldWarn(client *models.Client, pool []models.Client) bool {
	if client.Email != nil && normalizers.NormalizeEmail(*client.Email) != "" {
		return false
	}
	if client.Phone != nil && normalizers.NormalizePhone(*client.Phone) != "" {
		return false
	}

	return len(d.FindCandidates(client, pool)) > 0
}

// ConfidenceFor classifies a match. Exact-field match types are definitional
// and always classify high, regardless of score.
func ConfidenceFor(matchType models.MatchType, score float64) models.ConfidenceLevel {
	if matchType.IsExact() {
		return models.ConfidenceHigh
	}
	return names.ConfidenceBand(score)
}
