package controllers

import (
	"context"
	"errors"

	"expander/expander/orchestration"
	"expander/expander/sources/psql/dao"
	"expander/expander/sources/storage"
	"expander/expander/utils/types"

	"github.com/google/uuid"
)

var ErrNothingToExport = errors.New("no conversations recorded for that date")

type DailyController struct {
	store        *dao.ConversationDAO
	orchestrator *orchestration.DailyOrchestrator
	archive      *storage.MinIOClient
}

// NewDailyController wires the summary endpoints. archive may be nil when no
// object store is configured; export then reports unavailable.
func NewDailyController(store *dao.ConversationDAO, orch *orchestration.DailyOrchestrator, archive *storage.MinIOClient) *DailyController {
	return &DailyController{store: store, orchestrator: orch, archive: archive}
}

// GenerateSummary kicks off summary generation for one date. Generation is
// fire-and-forget from the caller's perspective; failures never surface.
func (c *DailyController) GenerateSummary(ctx context.Context, rawDate string) error {
	date, err := parseDate(rawDate)
	if err != nil {
		return err
	}
	c.orchestrator.GenerateSummaryForDate(ctx, date)
	return nil
}

func (c *DailyController) GenerateMissingSummaries(ctx context.Context) {
	c.orchestrator.GenerateMissingSummaries(ctx)
}

func (c *DailyController) MorningMessage(ctx context.Context) (string, error) {
	return c.orchestrator.MorningMessage(ctx)
}

// RegenerateSummary clears a conversation's summary and re-runs generation
// for its date.
func (c *DailyController) RegenerateSummary(ctx context.Context, conversationID string) error {
	id, err := uuid.Parse(conversationID)
	if err != nil {
		return ErrConversationNotFound
	}
	conv, err := c.store.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	if err := c.store.ClearSummary(ctx, id); err != nil {
		return err
	}
	c.orchestrator.GenerateSummaryForDate(ctx, conv.Date)
	return nil
}

func (c *DailyController) ResetProcessing() {
	c.orchestrator.ResetProcessing()
}

func (c *DailyController) IsProcessing() bool {
	return c.orchestrator.IsProcessing()
}

// ExportTranscript archives one day's transcript and summary to object
// storage and returns the object key.
func (c *DailyController) ExportTranscript(ctx context.Context, rawDate string) (*types.ExportResponse, error) {
	if c.archive == nil {
		return nil, errors.New("object storage is not configured")
	}
	date, err := parseDate(rawDate)
	if err != nil {
		return nil, err
	}
	convs, err := c.store.FetchAllByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, ErrNothingToExport
	}

	transcript := orchestration.RenderTranscript(convs)
	summary := ""
	for i := range convs {
		if convs[i].HasSummary() {
			summary = *convs[i].Summary
			break
		}
	}
	day := dao.StartOfDay(date)
	key, err := c.archive.ArchiveTranscript(ctx, day, c.store.DayNumber(date), transcript, summary)
	if err != nil {
		return nil, err
	}
	return &types.ExportResponse{Key: key}, nil
}
