package worker

import (
	"context"
	"fmt"
	"time"

	"listTracker/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auditor проверяет и уплотняет индексы одной секции.
type Auditor interface {
	AuditSection(ctx context.Context, sectionID uuid.UUID) (int, error)
}

// SectionLister отдаёт id секций постранично.
type SectionLister interface {
	GetSectionIDs(ctx context.Context, page, limit int) ([]uuid.UUID, error)
}

// IndexAuditor периодически обходит все секции и исправляет разрывы
// и дубликаты sectionIndex.
type IndexAuditor struct {
	sections  SectionLister
	auditor   Auditor
	interval  time.Duration
	batchSize int
}

type Report struct {
	Checked  int
	Repaired int
	Failed   int
}

func NewIndexAuditor(sections SectionLister, auditor Auditor, interval *time.Duration, batchSize *int) *IndexAuditor {
	intervalToSet := 5 * time.Minute
	if interval != nil && *interval > 0 {
		intervalToSet = *interval
	}

	batchToSet := 100
	if batchSize != nil && *batchSize > 0 {
		batchToSet = *batchSize
	}

	return &IndexAuditor{
		sections:  sections,
		auditor:   auditor,
		interval:  intervalToSet,
		batchSize: batchToSet,
	}
}

// Start блокируется до отмены ctx.
func (w *IndexAuditor) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая проверка индексов секций", zap.Time("started_at", time.Now()))
			if _, err := w.Check(ctx); err != nil {
				logger.Warn("Worker: Проверка прервана", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return nil
		}
	}
}

// Check проходит все секции страницами по batchSize.
func (w *IndexAuditor) Check(ctx context.Context) (Report, error) {
	start := time.Now()
	var report Report

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ids, err := w.sections.GetSectionIDs(ctx, page, w.batchSize)
		if err != nil {
			return report, fmt.Errorf("получение секций: %w", err)
		}

		for _, id := range ids {
			changed, err := w.auditor.AuditSection(ctx, id)
			report.Checked++
			if err != nil {
				report.Failed++
				logger.Warn("Worker: Ошибка проверки секции",
					zap.String("section_id", id.String()),
					zap.Error(err))
				continue
			}
			if changed > 0 {
				report.Repaired++
			}
		}

		if len(ids) < w.batchSize {
			break
		}
	}

	logger.Info(
		"Worker: Завершение проверки индексов",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", report.Checked),
		zap.Int("repaired", report.Repaired),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
