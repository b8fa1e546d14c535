// pipeline.go orchestrates one export run: fetch the entity graph, shape it into
// rows, encode (flattening for tabular formats), persist the export history record,
// and record the attempt in the audit trail. History and audit always run, success
// or failure, so every attempt an operator triggers is observable afterwards.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/portfolio-cms/portfolio-cms/internal/audit"
	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/telemetry"
	"github.com/portfolio-cms/portfolio-cms/pkg/checksum"
)

// ErrInvalidType is returned when the requested export type is not recognized.
var ErrInvalidType = errors.New("invalid export type")

// Error wraps an unrecoverable export fault with the attempt's identifying context.
type Error struct {
	Type   string
	Format string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s as %s failed: %v", e.Type, e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ContentStore provides the entity graphs the pipeline exports.
type ContentStore interface {
	ListWorkGraph(ctx context.Context) ([]*models.Work, error)
	ListComposers(ctx context.Context) ([]*models.Composer, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	ListLabels(ctx context.Context) ([]*models.Label, error)
	ListExpertises(ctx context.Context) ([]*models.Expertise, error)
}

// AssetStore provides asset metadata for ASSETS exports.
type AssetStore interface {
	ListAllAssets(ctx context.Context) ([]*models.Asset, error)
}

// HistoryStore persists export history records.
type HistoryStore interface {
	CreateExport(ctx context.Context, rec *models.ExportHistory) error
	MarkCompleted(ctx context.Context, id string, entityCount int, data []byte, sum string) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
}

// Recorder is the audit boundary; satisfied by *audit.Recorder.
type Recorder interface {
	Record(ctx context.Context, ev audit.Event)
}

// Outcome is the result of a successful export.
type Outcome struct {
	ExportID string
	Data     []byte
	Count    int
	Format   string
}

// Service runs exports.
type Service struct {
	content       ContentStore
	assets        AssetStore
	history       HistoryStore
	recorder      Recorder
	primaryLocale string
}

// NewService creates an export Service. primaryLocale selects the preferred
// translation for localized fields; empty defaults to "en".
func NewService(content ContentStore, assets AssetStore, history HistoryStore, recorder Recorder, primaryLocale string) *Service {
	if primaryLocale == "" {
		primaryLocale = "en"
	}
	return &Service{
		content:       content,
		assets:        assets,
		history:       history,
		recorder:      recorder,
		primaryLocale: primaryLocale,
	}
}

// Export runs the full pipeline for one export type and format on behalf of actor.
// Zero matching entities is a valid, successful export. The format is validated
// before any record is created; everything after record creation is reflected in
// the history record's terminal status.
func (s *Service) Export(ctx context.Context, typ, format string, actor audit.Actor) (*Outcome, error) {
	if !ValidFormat(format) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}

	start := time.Now()

	rec := &models.ExportHistory{
		UserID: actor.ID,
		Type:   typ,
		Format: format,
	}
	if err := s.history.CreateExport(ctx, rec); err != nil {
		return nil, &Error{Type: typ, Format: format, Err: fmt.Errorf("failed to create export record: %w", err)}
	}

	payload, count, err := s.buildPayload(ctx, typ, format)
	if err != nil {
		s.finishFailed(ctx, rec.ID, typ, format, actor, err)
		return nil, &Error{Type: typ, Format: format, Err: err}
	}

	sum := checksum.SHA256Bytes(payload)

	err = persist(ctx, func(pctx context.Context) error {
		return s.history.MarkCompleted(pctx, rec.ID, count, payload, sum)
	})
	if err != nil {
		// The payload was built but could not be stored. The attempt still has
		// to end terminal, so mark the record FAILED rather than leaving the
		// PENDING row behind.
		cause := fmt.Errorf("failed to persist export payload: %w", err)
		s.finishFailed(ctx, rec.ID, typ, format, actor, cause)
		return nil, &Error{Type: typ, Format: format, Err: cause}
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:       actor.ID,
		Action:        audit.ActionExport,
		EntityType:    "Export",
		EntityID:      rec.ID,
		ClientAddress: actor.ClientAddress,
		ClientAgent:   actor.ClientAgent,
		Metadata:      map[string]interface{}{"format": format, "type": typ, "count": count},
	})

	telemetry.ExportsTotal.WithLabelValues(typ, format, "completed").Inc()
	telemetry.ExportDuration.Observe(time.Since(start).Seconds())
	telemetry.ExportPayloadBytes.Observe(float64(len(payload)))

	return &Outcome{ExportID: rec.ID, Data: payload, Count: count, Format: format}, nil
}

// buildPayload runs the fallible middle of the pipeline: fetch, shape, encode.
func (s *Service) buildPayload(ctx context.Context, typ, format string) ([]byte, int, error) {
	rows, columns, err := s.buildRows(ctx, typ)
	if err != nil {
		return nil, 0, err
	}

	payload, err := Encode(format, strings.ToLower(typ), columns, rows)
	if err != nil {
		return nil, 0, err
	}
	return payload, len(rows), nil
}

// buildRows fetches and shapes the entity graph for one export type.
func (s *Service) buildRows(ctx context.Context, typ string) ([]Row, []string, error) {
	switch typ {
	case models.ExportTypeWorks:
		works, err := s.content.ListWorkGraph(ctx)
		if err != nil {
			return nil, nil, err
		}
		rows, columns := shapeWorks(works, s.primaryLocale)
		return rows, columns, nil
	case models.ExportTypeComposers:
		composers, err := s.content.ListComposers(ctx)
		if err != nil {
			return nil, nil, err
		}
		rows, columns := shapeComposers(composers)
		return rows, columns, nil
	case models.ExportTypeCategories:
		categories, err := s.content.ListCategories(ctx)
		if err != nil {
			return nil, nil, err
		}
		rows, columns := shapeCategories(categories)
		return rows, columns, nil
	case models.ExportTypeLabels:
		labels, err := s.content.ListLabels(ctx)
		if err != nil {
			return nil, nil, err
		}
		rows, columns := shapeLabels(labels)
		return rows, columns, nil
	case models.ExportTypeExpertises:
		expertises, err := s.content.ListExpertises(ctx)
		if err != nil {
			return nil, nil, err
		}
		rows, columns := shapeExpertises(expertises)
		return rows, columns, nil
	case models.ExportTypeAssets:
		assets, err := s.assets.ListAllAssets(ctx)
		if err != nil {
			return nil, nil, err
		}
		rows, columns := shapeAssets(assets)
		return rows, columns, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidType, typ)
	}
}

// finishFailed records the FAILED history row and the audit entry for a failed
// attempt. The history write uses a context that survives the caller's
// cancellation: a timed-out fetch must still leave a FAILED record behind rather
// than a stranded PENDING one.
func (s *Service) finishFailed(ctx context.Context, id, typ, format string, actor audit.Actor, cause error) {
	err := persist(ctx, func(pctx context.Context) error {
		return s.history.MarkFailed(pctx, id, cause.Error())
	})
	if err != nil {
		slog.Error("failed to mark export as failed", "export_id", id, "error", err)
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:       actor.ID,
		Action:        audit.ActionExport,
		EntityType:    "Export",
		EntityID:      id,
		ClientAddress: actor.ClientAddress,
		ClientAgent:   actor.ClientAgent,
		Metadata:      map[string]interface{}{"format": format, "type": typ, "status": "failed", "error": cause.Error()},
	})

	telemetry.ExportsTotal.WithLabelValues(typ, format, "failed").Inc()
}

// persist runs a history write on a context detached from request cancellation: a
// timed-out fetch must still leave a terminal record behind rather than a stranded
// PENDING one.
func persist(ctx context.Context, fn func(context.Context) error) error {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return fn(detached)
}
