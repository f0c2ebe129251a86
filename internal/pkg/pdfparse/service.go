package pdfparse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
	"github.com/parsemint/parsemint/internal/pkg/aiprovider"
	"github.com/parsemint/parsemint/internal/pkg/pdfextract"
	"github.com/parsemint/parsemint/internal/pkg/storage"
)

var (
	// ErrNoActiveModel means no AI model configuration is available to serve
	// the request.
	ErrNoActiveModel = errors.New("no active ai model is configured")
	// ErrUnknownModel means the request named a model that is not configured
	// or not active.
	ErrUnknownModel = errors.New("unknown ai model")
)

// Logger is the minimal logging surface the pipeline needs.
type Logger interface {
	Printf(format string, v ...any)
}

// Clock abstracts time so tests can pin ProcessedAt.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Archiver is the optional off-site copy hook for stored documents.
type Archiver interface {
	ArchiveDocument(ctx context.Context, storedName string, data []byte) error
}

// Request is one parse submission.
type Request struct {
	Filename  string
	Data      []byte
	ModelName string // optional explicit model, overrides the user preference
}

// Service runs the upload-extract-dispatch pipeline. Every accepted request
// produces a parse record that reaches a terminal status: all pipeline
// failures funnel through a single boundary that writes the failure back.
type Service struct {
	store       storage.Store
	extractor   pdfextract.Extractor
	parses      repository.PdfParseRepository
	aiModels    repository.AiModelRepository
	subs        repository.UserSubscriptionRepository
	archive     Archiver
	providerFor func(*models.AiModel) (aiprovider.Provider, error)
	clock       Clock
	logger      Logger
}

// NewService wires the pipeline from injected collaborators. archive may be
// nil when off-site archival is disabled.
func NewService(store storage.Store, extractor pdfextract.Extractor, parses repository.PdfParseRepository, aiModels repository.AiModelRepository, subs repository.UserSubscriptionRepository, archive Archiver) *Service {
	return &Service{
		store:       store,
		extractor:   extractor,
		parses:      parses,
		aiModels:    aiModels,
		subs:        subs,
		archive:     archive,
		providerFor: aiprovider.ForModel,
		clock:       systemClock{},
		logger:      log.Default(),
	}
}

// Parse accepts one document, persists it, and runs extraction plus AI
// dispatch synchronously. The returned record is always terminal. An error
// return means the request was rejected before a record existed.
func (s *Service) Parse(ctx context.Context, user *models.User, req Request) (*models.PdfParse, error) {
	model, err := s.selectModel(user, req.ModelName)
	if err != nil {
		return nil, err
	}

	storedName, err := s.store.Save(req.Data)
	if err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}

	record := &models.PdfParse{
		UserID:           user.ID,
		AiModelID:        model.ID,
		OriginalFilename: req.Filename,
		StoredFilename:   storedName,
		FileSizeBytes:    int64(len(req.Data)),
		Status:           models.ParseStatusProcessing,
	}
	if err := s.parses.Create(record); err != nil {
		return nil, fmt.Errorf("creating parse record: %w", err)
	}
	record.AiModel = model

	s.recordUsage(user.ID)
	s.archiveCopy(ctx, storedName, req.Data)

	if err := s.run(ctx, record, model, req.Data); err != nil {
		s.fail(record, err)
	}
	return record, nil
}

// run is the single failure boundary: any error it returns is written back
// as the record's terminal failed state by the caller.
func (s *Service) run(ctx context.Context, record *models.PdfParse, model *models.AiModel, data []byte) error {
	extracted, err := s.extractor.Extract(data)
	if err != nil {
		return fmt.Errorf("text extraction failed: %w", err)
	}

	provider, err := s.providerFor(model)
	if err != nil {
		return err
	}

	structured, err := provider.ExtractStructured(ctx, extracted.Text)
	if err != nil {
		return fmt.Errorf("%s extraction failed: %w", provider.Name(), err)
	}
	if !json.Valid([]byte(structured)) {
		return fmt.Errorf("%s returned invalid JSON", provider.Name())
	}

	result := map[string]any{
		"provider":   provider.Name(),
		"model":      model.ModelIdentifier,
		"page_count": extracted.PageCount,
		"metadata":   extracted.Metadata,
		"data":       json.RawMessage(structured),
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	resultJSON := string(raw)
	record.ParseResultJSON = &resultJSON
	record.ErrorMessage = nil
	record.Status = models.ParseStatusCompleted
	record.ProcessedAt = &now
	return s.parses.Update(record)
}

func (s *Service) fail(record *models.PdfParse, cause error) {
	s.logger.Printf("pdfparse: parse %d failed: %v", record.ID, cause)

	now := s.clock.Now()
	msg := cause.Error()
	record.ErrorMessage = &msg
	record.Status = models.ParseStatusFailed
	record.ProcessedAt = &now
	if err := s.parses.Update(record); err != nil {
		s.logger.Printf("pdfparse: writing failed state for parse %d errored: %v", record.ID, err)
	}
}

// selectModel resolves the model to use: explicit request parameter first,
// then the user's stored preference, then the first active configuration. An
// explicitly requested name must exist; a stale stored preference falls
// through to the next tier instead.
func (s *Service) selectModel(user *models.User, requested string) (*models.AiModel, error) {
	if name := strings.TrimSpace(requested); name != "" {
		model, err := s.aiModels.GetActiveByName(name)
		if err == nil {
			return model, nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
		}
		return nil, err
	}

	if name := strings.TrimSpace(user.PreferredAiModel); name != "" {
		model, err := s.aiModels.GetActiveByName(name)
		if err == nil {
			return model, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	model, err := s.aiModels.GetFirstActive()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveModel
		}
		return nil, err
	}
	return model, nil
}

// recordUsage counts the accepted request against the user's active
// entitlement. Best effort: a metering write failure does not reject the
// parse that was already admitted.
func (s *Service) recordUsage(userID uint) {
	us, err := s.subs.GetActiveForUser(userID, s.clock.Now())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Printf("pdfparse: usage lookup for user %d failed: %v", userID, err)
		}
		return
	}
	if err := s.subs.IncrementAPICallsUsed(us.ID); err != nil {
		s.logger.Printf("pdfparse: usage increment for user %d failed: %v", userID, err)
	}
}

func (s *Service) archiveCopy(ctx context.Context, storedName string, data []byte) {
	if s.archive == nil {
		return
	}
	if err := s.archive.ArchiveDocument(ctx, storedName, data); err != nil {
		s.logger.Printf("pdfparse: archiving %s failed: %v", storedName, err)
	}
}

// Status fetches one parse record scoped to its owner.
func (s *Service) Status(id, userID uint) (*models.PdfParse, error) {
	return s.parses.GetByIDForUser(id, userID)
}

// History lists a user's parse records, newest first.
func (s *Service) History(userID uint, offset, limit int) ([]models.PdfParse, int64, error) {
	records, err := s.parses.ListByUser(userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.parses.CountByUser(userID)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
