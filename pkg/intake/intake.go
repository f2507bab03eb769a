// Package intake handles incoming client records from upstream source systems.
// This is the ingestion layer - it upserts clients and runs duplicate detection
// against the existing pool after every write.
package intake

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/laurel/internal/repositories/client"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/detection"
	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Processor handles client record intake messages
type Processor struct {
	logger     ectologger.Logger
	clientRepo *client.Repository
	detection  *detection.Service
	validate   *validator.Validate
}

// NewProcessor creates a new intake processor
func NewProcessor(
	logger ectologger.Logger,
	clientRepo *client.Repository,
	detectionService *detection.Service,
) *Processor {
	return &Processor{
		logger:     logger,
		clientRepo: clientRepo,
		detection:  detectionService,
		validate:   validator.New(),
	}
}

// ProcessMessage handles an incoming Kafka message
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "intake.Processor.ProcessMessage")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"key":    msg.Key,
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	if msg.ClientRecord == nil {
		if err := msg.ParseClientRecord(); err != nil {
			log.WithError(err).Error("Failed to parse client record")
			return nil // Skip message, don't retry
		}
	}
	record := msg.ClientRecord

	if err := p.validate.Struct(record); err != nil {
		log.WithError(err).Error("Client record failed validation, skipping")
		return nil // Skip message, don't retry
	}

	log = log.WithFields(map[string]any{
		"source_system":    record.SourceSystem,
		"source_client_id": record.SourceClientID,
	})

	upserted, err := p.upsertClient(ctx, record, log)
	if err != nil {
		return err
	}

	if _, err := p.detection.DetectAndPersist(ctx, upserted.ID, models.DetectionSourceUpload); err != nil {
		log.WithError(err).Error("Duplicate detection failed after upsert")
		return err
	}

	return nil
}

// upsertClient matches the record to an existing client by its source system
// key and updates in place, or creates a new client record. Updates never
// overwrite a populated field with an empty incoming value.
func (p *Processor) upsertClient(ctx context.Context, record *models.ClientRecord, log ectologger.Logger) (*models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "intake.Processor.upsertClient")
	defer span.End()

	dob, err := record.ParseDateOfBirth()
	if err != nil {
		log.WithError(err).Warn("Invalid date of birth on client record, ignoring field")
		dob = nil
	}

	source := models.SourceSystem(record.SourceSystem)
	existing, err := p.clientRepo.GetByExternalID(ctx, source, record.SourceClientID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		created, err := p.clientRepo.Create(ctx, &models.Client{
			FirstName:       record.FirstName,
			LastName:        record.LastName,
			Email:           record.Email,
			Phone:           record.Phone,
			DateOfBirth:     dob,
			ClientID:        &record.SourceClientID,
			Source:          source,
			LegacyClientIDs: database.NewJSONB(record.LegacyClientIDs),
			UpdatedBy:       record.UpdatedBy,
		})
		if err != nil {
			return nil, err
		}
		log.WithFields(map[string]any{"client_id": created.ID}).Info("Created client from intake record")
		return created, nil
	}

	existing.FirstName = record.FirstName
	existing.LastName = record.LastName
	if record.Email != nil && *record.Email != "" {
		existing.Email = record.Email
	}
	if record.Phone != nil && *record.Phone != "" {
		existing.Phone = record.Phone
	}
	if dob != nil {
		existing.DateOfBirth = dob
	}
	if record.UpdatedBy != nil {
		existing.UpdatedBy = record.UpdatedBy
	}

	// Provenance entries are append-only
	for _, entry := range record.LegacyClientIDs {
		if entry.Source == "" || entry.ClientID == "" {
			continue
		}
		if !existing.HasLegacyID(entry.Source, entry.ClientID) {
			existing.LegacyClientIDs = database.NewJSONB(append(existing.LegacyClientIDs.GetValue(), entry))
		}
	}

	if err := p.clientRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{"client_id": existing.ID}).Info("Updated client from intake record")
	return existing, nil
}
