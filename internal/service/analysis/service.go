package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	engine "github.com/medilens/medilens-api/internal/analysis"
	"github.com/medilens/medilens-api/internal/corpus"
	"github.com/medilens/medilens-api/internal/model"
	"github.com/medilens/medilens-api/internal/repository"
	"github.com/medilens/medilens-api/pkg/cache"
	apperrors "github.com/medilens/medilens-api/pkg/errors"
	"github.com/medilens/medilens-api/pkg/logger"
	"github.com/medilens/medilens-api/pkg/metrics"
	"github.com/medilens/medilens-api/pkg/security"
)

const cacheKeyPrefix = "report:"

// AnalyzeInput is one analysis request.
type AnalyzeInput struct {
	Text   string
	UserID string
	// Save stores the result in the caller's history. Ignored without UserID.
	Save bool
}

// Result is the outcome of Analyze.
type Result struct {
	ID              *uuid.UUID      `json:"id,omitempty"`
	TextHash        string          `json:"text_hash"`
	Report          json.RawMessage `json:"report"`
	Medicines       []string        `json:"medicines"`
	MedicationCount int             `json:"medication_count"`
	Cached          bool            `json:"cached"`
}

// cachedReport is what the report cache stores per text hash.
type cachedReport struct {
	Report          json.RawMessage `json:"report"`
	Medicines       []string        `json:"medicines"`
	MedicationCount int             `json:"medication_count"`
	PatientName     string          `json:"patient_name,omitempty"`
	DoctorName      string          `json:"doctor_name,omitempty"`
}

type Service struct {
	analyzer  *engine.Analyzer
	repo      repository.AnalysisRepository
	sealer    security.TextSealer
	cache     cache.Cache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithHistory enables saved analyses. Text is encrypted before storage.
func WithHistory(repo repository.AnalysisRepository, sealer security.TextSealer) Option {
	return func(s *Service) {
		s.repo = repo
		s.sealer = sealer
	}
}

func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func NewService(analyzer *engine.Analyzer, opts ...Option) *Service {
	s := &Service{
		analyzer: analyzer,
		logger:   logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New("medilens")
	}
	s.metrics.CorpusExamples.Set(float64(analyzer.Corpus().Len()))
	return s
}

// HistoryEnabled reports whether analyses can be saved and listed.
func (s *Service) HistoryEnabled() bool {
	return s.repo != nil && s.sealer != nil
}

func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*Result, error) {
	start := s.now()
	defer func() {
		s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	corrected := engine.CorrectOCRText(in.Text)
	if corrected == "" {
		return nil, apperrors.BadRequest("text is required", nil)
	}
	hash := TextHash(corrected)

	entry, cached := s.cachedReport(ctx, hash)
	if !cached {
		var err error
		entry, err = s.buildReport(corrected)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		s.storeReport(ctx, hash, entry)
		s.metrics.AnalysesTotal.WithLabelValues("computed").Inc()
	} else {
		s.metrics.AnalysesTotal.WithLabelValues("cache").Inc()
	}

	result := &Result{
		TextHash:        hash,
		Report:          entry.Report,
		Medicines:       entry.Medicines,
		MedicationCount: entry.MedicationCount,
		Cached:          cached,
	}

	if in.Save && in.UserID != "" {
		id, err := s.save(ctx, in.UserID, hash, corrected, entry)
		if err != nil {
			return nil, err
		}
		result.ID = &id
	}

	return result, nil
}

func (s *Service) buildReport(corrected string) (*cachedReport, error) {
	info := s.analyzer.ExtractMedicalInfo(corrected)

	medicines := make([]string, 0, len(info.Medications))
	count := 0
	for _, med := range info.Medications {
		rule := med.Rule
		if rule == "" {
			rule = "generic"
		}
		s.metrics.RuleHits.WithLabelValues(rule).Inc()
		if med.Rule == engine.RuleUnidentified {
			continue
		}
		count++
		if med.Name != "" {
			medicines = append(medicines, med.Name)
		}
	}
	s.metrics.MedicationsPerReport.Observe(float64(count))

	raw, err := json.Marshal(engine.NewReport(info))
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	return &cachedReport{
		Report:          raw,
		Medicines:       medicines,
		MedicationCount: count,
		PatientName:     info.Patient.Name,
		DoctorName:      info.Patient.Doctor,
	}, nil
}

func (s *Service) cachedReport(ctx context.Context, hash string) (*cachedReport, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, tier, ok := s.cache.Get(ctx, cacheKeyPrefix+hash)
	if !ok {
		s.metrics.CacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
	var entry cachedReport
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("Discarding undecodable cached report", "text_hash", hash, "error", err.Error())
		s.metrics.CacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
	s.metrics.CacheRequests.WithLabelValues("hit_" + tier).Inc()
	return &entry, true
}

func (s *Service) storeReport(ctx context.Context, hash string, entry *cachedReport) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+hash, raw, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache report", "text_hash", hash, "error", err.Error())
	}
}

func (s *Service) save(ctx context.Context, userID, hash, corrected string, entry *cachedReport) (uuid.UUID, error) {
	if !s.HistoryEnabled() {
		return uuid.Nil, apperrors.Unavailable("analysis history")
	}

	id := uuid.New()
	encrypted, err := s.sealer.Seal([]byte(corrected), security.RecordBinding(id, userID))
	if err != nil {
		return uuid.Nil, apperrors.Internal(fmt.Errorf("failed to encrypt text: %w", err))
	}

	now := s.now().UTC()
	record := &model.Analysis{
		Base: model.Base{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:          userID,
		TextHash:        hash,
		EncryptedText:   encrypted,
		Report:          entry.Report,
		Medicines:       entry.Medicines,
		MedicationCount: entry.MedicationCount,
		PatientName:     entry.PatientName,
		DoctorName:      entry.DoctorName,
	}

	event, err := s.newEvent(model.EventAnalysisCreated, record)
	if err != nil {
		return uuid.Nil, apperrors.Internal(err)
	}

	if err := s.observe("create_analysis", func() error {
		return s.repo.CreateWithEvent(ctx, record, event)
	}); err != nil {
		return uuid.Nil, apperrors.Internal(fmt.Errorf("failed to save analysis: %w", err))
	}

	s.logger.Info("Saved analysis",
		"analysis_id", record.ID.String(),
		"medication_count", record.MedicationCount)
	return record.ID, nil
}

// Correct applies OCR corrections only.
func (s *Service) Correct(text string) string {
	return engine.CorrectOCRText(text)
}

// Extract returns the structured information without rendering a report.
func (s *Service) Extract(text string) (engine.MedicalInfo, error) {
	corrected := engine.CorrectOCRText(text)
	if corrected == "" {
		return engine.MedicalInfo{}, apperrors.BadRequest("text is required", nil)
	}
	return s.analyzer.ExtractMedicalInfo(corrected), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, userID string) (*model.Analysis, error) {
	if !s.HistoryEnabled() {
		return nil, apperrors.Unavailable("analysis history")
	}

	var record *model.Analysis
	err := s.observe("get_analysis", func() error {
		var err error
		record, err = s.repo.Get(ctx, id, userID)
		return err
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	plain, err := s.sealer.Open(record.EncryptedText, security.RecordBinding(record.ID, record.UserID))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to decrypt text: %w", err))
	}
	record.CorrectedText = string(plain)
	return record, nil
}

func (s *Service) List(ctx context.Context, userID string, filters *model.AnalysisFilters) (*model.PagedResult[*model.Analysis], error) {
	if !s.HistoryEnabled() {
		return nil, apperrors.Unavailable("analysis history")
	}
	if filters == nil {
		filters = &model.AnalysisFilters{}
	}
	filters.Normalize()

	var (
		items []*model.Analysis
		total int64
	)
	err := s.observe("list_analyses", func() error {
		var err error
		if items, err = s.repo.List(ctx, userID, filters); err != nil {
			return err
		}
		total, err = s.repo.Count(ctx, userID, filters)
		return err
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.PagedResult[*model.Analysis]{
		Items:    items,
		Total:    total,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	}, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	if !s.HistoryEnabled() {
		return apperrors.Unavailable("analysis history")
	}
	event, err := s.newEvent(model.EventAnalysisDeleted, &model.Analysis{Base: model.Base{ID: id}, UserID: userID})
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.observe("delete_analysis", func() error {
		return s.repo.Delete(ctx, id, userID, event)
	}); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// MarkSentToChat flags the analysis as shared to the chat assistant.
func (s *Service) MarkSentToChat(ctx context.Context, id uuid.UUID, userID string) error {
	if !s.HistoryEnabled() {
		return apperrors.Unavailable("analysis history")
	}
	record, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	event, err := s.newEvent(model.EventAnalysisSentToChat, record)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.observe("mark_sent_to_chat", func() error {
		return s.repo.MarkSentToChat(ctx, id, userID, event)
	}); err != nil {
		return mapRepoError(err)
	}
	return nil
}

func (s *Service) LookupTerm(term string) (corpus.Lookup, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return corpus.Lookup{}, apperrors.BadRequest("term is required", nil)
	}
	res, ok := s.analyzer.Corpus().LookupTerm(term)
	if !ok {
		return corpus.Lookup{}, apperrors.NotFound("term", nil)
	}
	return res, nil
}

func (s *Service) CorpusStats() corpus.Stats {
	return s.analyzer.Corpus().Stats()
}

// Ready checks the history store when one is configured.
func (s *Service) Ready(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.Ping(ctx)
}

func (s *Service) newEvent(eventType string, record *model.Analysis) (*model.OutboxEvent, error) {
	event, err := model.NewOutboxEvent(eventType, model.AnalysisEvent{
		AnalysisID:      record.ID,
		UserID:          record.UserID,
		Medicines:       record.Medicines,
		MedicationCount: record.MedicationCount,
		OccurredAt:      s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	return event, nil
}

func (s *Service) observe(operation string, fn func() error) error {
	start := s.now()
	err := fn()
	status := "success"
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		status = "error"
	}
	s.metrics.DatabaseOperations.WithLabelValues(operation, status).Inc()
	s.metrics.DatabaseLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	return err
}

func mapRepoError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("analysis", err)
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	return apperrors.Internal(err)
}

// TextHash is the cache and history key of corrected text.
func TextHash(corrected string) string {
	sum := sha256.Sum256([]byte(corrected))
	return hex.EncodeToString(sum[:])
}
