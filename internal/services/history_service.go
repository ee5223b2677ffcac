package services

import (
	"context"
	"fmt"
	"strings"

	"codescan/internal/history"
	"codescan/internal/metrics"
	"codescan/internal/models"

	"github.com/rs/zerolog"
)

// HistoryService exposes the history use cases to sessions, controllers and handlers
type HistoryService struct {
	store *history.Store
	log   zerolog.Logger
}

func NewHistoryService(store *history.Store, log zerolog.Logger) *HistoryService {
	return &HistoryService{store: store, log: log}
}

// SaveScanRecord persists a scan result in the SCAN partition
func (s *HistoryService) SaveScanRecord(ctx context.Context, result models.ScanResult) (models.CodeRecord, error) {
	record := models.NewCodeRecord(result.Content, result.Format, models.RecordTypeScan)
	return s.SaveRecord(ctx, record)
}

// SaveGenerateRecord persists generated content in the GENERATE partition
func (s *HistoryService) SaveGenerateRecord(ctx context.Context, content string, format models.CodeFormat) (models.CodeRecord, error) {
	if strings.TrimSpace(content) == "" {
		return models.CodeRecord{}, fmt.Errorf("content is required")
	}
	record := models.NewCodeRecord(content, format, models.RecordTypeGenerate)
	return s.SaveRecord(ctx, record)
}

// SaveRecord persists a record built by the caller and returns it with its id
func (s *HistoryService) SaveRecord(ctx context.Context, record models.CodeRecord) (models.CodeRecord, error) {
	id, err := s.store.Insert(ctx, record)
	metrics.HistoryWrites.WithLabelValues("insert", string(record.RecordType), metrics.Outcome(err)).Inc()
	if err != nil {
		return models.CodeRecord{}, err
	}
	record.ID = id
	s.log.Debug().
		Int64("id", id).
		Str("record_type", string(record.RecordType)).
		Str("format", string(record.Format)).
		Msg("history record saved")
	return record, nil
}

func (s *HistoryService) Observe(ctx context.Context, rt models.RecordType) (<-chan []models.CodeRecord, error) {
	return s.store.Observe(ctx, rt)
}

func (s *HistoryService) List(ctx context.Context, rt models.RecordType) ([]models.CodeRecord, error) {
	return s.store.List(ctx, rt)
}

func (s *HistoryService) Get(ctx context.Context, id int64) (models.CodeRecord, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a record. Records that are already gone are not an error.
func (s *HistoryService) Delete(ctx context.Context, record models.CodeRecord) error {
	err := s.store.Delete(ctx, record)
	metrics.HistoryWrites.WithLabelValues("delete", string(record.RecordType), metrics.Outcome(err)).Inc()
	return err
}

// DeleteByID looks the record up first so the right partition is notified
func (s *HistoryService) DeleteByID(ctx context.Context, id int64) error {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.Delete(ctx, record)
}

func (s *HistoryService) Clear(ctx context.Context, rt models.RecordType) error {
	err := s.store.Clear(ctx, rt)
	metrics.HistoryWrites.WithLabelValues("clear", string(rt), metrics.Outcome(err)).Inc()
	if err == nil {
		s.log.Info().Str("record_type", string(rt)).Msg("history cleared")
	}
	return err
}
