package detection

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/internal/repositories/client"
	"github.com/Ramsey-B/laurel/internal/repositories/duplicatecandidate"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Config contains configuration for the detection service. The score cutoff
// belongs to the Detector, not here.
type Config struct {
	MaxCandidates int // Maximum candidates persisted per detection run (default: 100)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxCandidates: 100,
	}
}

// EventEmitter publishes candidate events. Emission failures never fail detection.
type EventEmitter interface {
	EmitCandidateCreated(ctx context.Context, candidate *models.ClientDuplicateCandidate) error
}

// Service runs detection for a client and persists the proposed pairings
type Service struct {
	log           ectologger.Logger
	detector      *Detector
	clientRepo    *client.Repository
	candidateRepo *duplicatecandidate.Repository
	emitter       EventEmitter
	cfg           Config
}

// NewService creates a new detection service. The emitter may be nil.
func NewService(
	log ectologger.Logger,
	detector *Detector,
	clientRepo *client.Repository,
	candidateRepo *duplicatecandidate.Repository,
	emitter EventEmitter,
	cfg Config,
) *Service {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 100
	}
	return &Service{
		log:           log,
		detector:      detector,
		clientRepo:    clientRepo,
		candidateRepo: candidateRepo,
		emitter:       emitter,
		cfg:           cfg,
	}
}

// DetectAndPersist scores the client against the full pool and persists one
// candidate row per accepted match. Exact-field matches are proposed first
// and always classify high confidence; fuzzy matches follow in score order.
// Persistence is idempotent per ordered pair, so re-running detection after
// an edit never duplicates rows and never resurrects a not_duplicate pair.
// Returns the number of newly created candidate rows.
func (s *Service) DetectAndPersist(ctx context.Context, clientID string, source models.DetectionSource) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "detection.Service.DetectAndPersist")
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"client_id":        clientID,
		"detection_source": source,
	})

	subject, err := s.clientRepo.Get(ctx, clientID)
	if err != nil {
		return 0, err
	}

	pool, err := s.clientRepo.ListPool(ctx, clientID)
	if err != nil {
		return 0, err
	}

	matches := s.detector.FindExactMatches(subject, pool)
	seen := make(map[string]bool, len(matches))
	for _, match := range matches {
		seen[match.Client.ID] = true
	}
	for _, match := range s.detector.FindCandidates(subject, pool) {
		if seen[match.Client.ID] {
			continue
		}
		matches = append(matches, match)
	}

	if len(matches) > s.cfg.MaxCandidates {
		matches = matches[:s.cfg.MaxCandidates]
	}

	created := 0
	for _, match := range matches {
		candidate := &models.ClientDuplicateCandidate{
			PrimaryClientID:   match.Client.ID,
			DuplicateClientID: subject.ID,
			SimilarityScore:   match.Score,
			MatchType:         match.MatchType,
			ConfidenceLevel:   ConfidenceFor(match.MatchType, match.Score),
			DetectionSource:   source,
		}
		inserted, err := s.candidateRepo.Create(ctx, candidate)
		if err != nil {
			return created, err
		}
		if !inserted {
			continue
		}
		created++
		if s.emitter != nil {
			if err := s.emitter.EmitCandidateCreated(ctx, candidate); err != nil {
				log.WithError(err).Warn("Failed to emit candidate.created event")
			}
		}
	}

	if created > 0 {
		log.WithFields(map[string]any{"created": created, "matched": len(matches)}).Info("Persisted duplicate candidates")
	} else {
		log.WithFields(map[string]any{"matched": len(matches)}).Debug("Detection run created no new candidates")
	}

	return created, nil
}
