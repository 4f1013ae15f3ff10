package usecase

import (
	"context"
	"fmt"
	"time"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	exportPageSize      = 1000
	maxExportRange      = 366 * 24 * time.Hour
)

// HistoryUsecase serves the calculation audit trail for reporting.
type HistoryUsecase struct {
	logRepo domain.CalculationLogRepository
	storage domain.ObjectStorage // nil disables exports
	timeout time.Duration
	now     func() time.Time
}

func NewHistoryUsecase(logRepo domain.CalculationLogRepository, storage domain.ObjectStorage, timeout time.Duration) *HistoryUsecase {
	return &HistoryUsecase{
		logRepo: logRepo,
		storage: storage,
		timeout: timeout,
		now:     time.Now,
	}
}

func (u *HistoryUsecase) ListHistory(ctx context.Context, filter domain.CalculationLogFilter, page, limit int) ([]domain.CalculationLogEntry, domain.Pagination, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return nil, domain.Pagination{}, fmt.Errorf("%w: limit must be 1-%d", domain.ErrInvalidInput, maxHistoryLimit)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, domain.Pagination{}, fmt.Errorf("%w: end date must be after start date", domain.ErrInvalidInput)
	}

	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	entries, total, err := u.logRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return entries, domain.NewPagination(page, limit, total), nil
}

type historyExport struct {
	From        time.Time                    `json:"from"`
	To          time.Time                    `json:"to"`
	GeneratedAt time.Time                    `json:"generatedAt"`
	Count       int                          `json:"count"`
	Entries     []domain.CalculationLogEntry `json:"entries"`
}

// ExportHistory writes every entry in [from, to) to object storage as one
// JSON document and returns its URL.
func (u *HistoryUsecase) ExportHistory(ctx context.Context, from, to time.Time) (string, error) {
	if u.storage == nil {
		return "", fmt.Errorf("history export: %w", domain.ErrNotConfigured)
	}
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return "", fmt.Errorf("%w: end date must be after start date", domain.ErrInvalidInput)
	}
	if to.Sub(from) > maxExportRange {
		return "", fmt.Errorf("%w: date range cannot exceed 366 days", domain.ErrInvalidInput)
	}

	doc := historyExport{From: from, To: to, GeneratedAt: u.now().UTC(), Entries: []domain.CalculationLogEntry{}}
	// Keyset pages: rows appended mid-export sort ahead of the cursor.
	filter := domain.CalculationLogFilter{From: from, To: to, Limit: exportPageSize}
	for {
		page, _, err := u.logRepo.List(ctx, filter)
		if err != nil {
			return "", err
		}
		doc.Entries = append(doc.Entries, page...)
		if len(page) < exportPageSize {
			break
		}
		last := page[len(page)-1]
		filter.BeforeTime, filter.BeforeID = last.CalculationTime, last.ID
	}
	doc.Count = len(doc.Entries)

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode history export: %w", err)
	}

	key := fmt.Sprintf("reports/calculation-history/%s_%s_%s.json",
		from.Format("20060102"), to.Format("20060102"), uuid.NewString()[:8])
	url, err := u.storage.PutObject(ctx, key, data, "application/json")
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDataStoreUnavailable, err)
	}

	logger.WithContext(ctx).Info().
		Int("entries", doc.Count).
		Str("key", key).
		Msg("History: export uploaded")
	return url, nil
}
