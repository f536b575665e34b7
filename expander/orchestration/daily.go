package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"expander/expander/config"
	"expander/expander/services/llm"
	"expander/expander/sources/psql/dao"
	"expander/expander/sources/psql/models"
	"expander/expander/utils/logging"
	"expander/expander/utils/textutils"

	"go.uber.org/zap"
)

const transcriptSeparator = "\n\n---\n\n"

// Morning-message fallbacks when generation fails.
const (
	firstDayFallback = "Welcome to your journey of reflection and growth. I'm here to listen and explore with you. What's on your mind today?"
	regularFallback  = "Good morning! Ready to explore today's thoughts together?"
)

// DailyOrchestrator sequences end-of-day summaries and morning messages.
// One generation runs at a time process-wide: isProcessing is a single global
// gate, intentionally serializing even unrelated dates.
type DailyOrchestrator struct {
	store   *dao.ConversationDAO
	state   *dao.DailyStateDAO
	llm     *llm.Service
	prompts config.Prompts

	processing atomic.Bool
	now        func() time.Time
}

func NewDailyOrchestrator(store *dao.ConversationDAO, state *dao.DailyStateDAO, svc *llm.Service, prompts config.Prompts) *DailyOrchestrator {
	return &DailyOrchestrator{
		store:   store,
		state:   state,
		llm:     svc,
		prompts: prompts,
		now:     time.Now,
	}
}

// WithClock overrides the time source; test hook.
func (o *DailyOrchestrator) WithClock(now func() time.Time) *DailyOrchestrator {
	o.now = now
	return o
}

func (o *DailyOrchestrator) IsProcessing() bool { return o.processing.Load() }

// ResetProcessing force-clears the gate. Idempotent; the escape hatch for a
// stuck flag after a crash mid-generation.
func (o *DailyOrchestrator) ResetProcessing() { o.processing.Store(false) }

// GenerateSummaryForDate summarizes one day's conversations. No-op while
// another generation is running or when a non-empty summary already exists.
// Failures are swallowed: the summary stays unset and retriable, and nothing
// surfaces to the user.
func (o *DailyOrchestrator) GenerateSummaryForDate(ctx context.Context, date time.Time) {
	if !o.processing.CompareAndSwap(false, true) {
		return
	}
	defer o.processing.Store(false)

	o.summarizeDate(ctx, date, o.fetchSummary(ctx, dao.StartOfDay(date).AddDate(0, 0, -1)))
}

// GenerateMissingSummaries summarizes every conversation that has messages but
// no summary, strictly sequentially in ascending date order. The fold carries
// each freshly generated summary forward as the next day's context, so
// day-over-day narrative continuity survives multi-day gaps in processing.
func (o *DailyOrchestrator) GenerateMissingSummaries(ctx context.Context) {
	if !o.processing.CompareAndSwap(false, true) {
		return
	}
	defer o.processing.Store(false)

	convs, err := o.store.NeedingSummaries(ctx)
	if err != nil {
		logging.ErrorLogger.Error("fetching conversations needing summaries", zap.Error(err))
		return
	}

	carriedDate := time.Time{}
	carried := ""
	for i := range convs {
		conv := &convs[i]
		prevDate := dao.StartOfDay(conv.Date).AddDate(0, 0, -1)

		prev := carried
		if !carriedDate.Equal(prevDate) {
			// Gap in the list; the prior day may have been summarized earlier.
			prev = o.fetchSummary(ctx, prevDate)
		}

		summary := o.summarizeDate(ctx, conv.Date, prev)
		carriedDate = dao.StartOfDay(conv.Date)
		carried = summary
	}
}

// summarizeDate generates and persists one day's summary, returning the
// summary text ("" on failure or no-op). Callers hold the processing gate.
func (o *DailyOrchestrator) summarizeDate(ctx context.Context, date time.Time, prevSummary string) string {
	convs, err := o.store.FetchAllByDate(ctx, date)
	if err != nil {
		logging.ErrorLogger.Error("fetching conversations for summary", zap.Error(err))
		return ""
	}
	if len(convs) == 0 {
		return ""
	}
	for i := range convs {
		if convs[i].HasSummary() {
			return *convs[i].Summary
		}
	}

	transcript := RenderTranscript(convs)
	if strings.TrimSpace(transcript) == "" {
		return ""
	}

	content := transcript
	if prevSummary != "" {
		content = fmt.Sprintf("Previous day's summary:\n%s\n\nToday's conversations:\n%s", prevSummary, transcript)
	}

	summary, err := o.llm.SendSingleMessage(ctx, content, o.prompts.DailySummary)
	if err != nil {
		// Swallowed: the day stays unsummarized and retriable.
		logging.ErrorLogger.Error("daily summary generation failed",
			zap.Time("date", dao.StartOfDay(date)),
			zap.String("kind", string(llm.KindOf(err))),
		)
		return ""
	}

	summary = textutils.CleanCompletion(summary)
	for i := range convs {
		if err := o.store.SetSummary(ctx, convs[i].ID, summary); err != nil {
			logging.ErrorLogger.Error("persisting daily summary", zap.Error(err))
			return ""
		}
	}
	return summary
}

func (o *DailyOrchestrator) fetchSummary(ctx context.Context, date time.Time) string {
	conv, err := o.store.FetchByDate(ctx, date)
	if err != nil || conv == nil || !conv.HasSummary() {
		return ""
	}
	return *conv.Summary
}

// RenderTranscript flattens a date's conversations into display-role lines,
// separating multiple conversations with a divider. Empty turns are dropped.
func RenderTranscript(convs []models.Conversation) string {
	blocks := make([]string, 0, len(convs))
	for i := range convs {
		lines := make([]string, 0, len(convs[i].Messages))
		for _, msg := range convs[i].SortedMessages() {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				continue
			}
			lines = append(lines, msg.DisplayRole()+": "+content)
		}
		if len(lines) == 0 {
			continue
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, transcriptSeparator)
}
