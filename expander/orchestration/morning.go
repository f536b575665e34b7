package orchestration

import (
	"context"
	"time"

	"expander/expander/services/llm"
	"expander/expander/sources/psql/dao"
	"expander/expander/utils/logging"
	"expander/expander/utils/textutils"

	"go.uber.org/zap"
)

// ProcessCurrentDay is the day-rollover hook: it summarizes yesterday if that
// is still pending, then generates today's morning message. Safe to call
// repeatedly; once today has a morning message recorded it is a no-op.
func (o *DailyOrchestrator) ProcessCurrentDay(ctx context.Context) {
	if !o.processing.CompareAndSwap(false, true) {
		return
	}
	defer o.processing.Store(false)

	today := dao.StartOfDay(o.now())
	state, err := o.state.Get(ctx)
	if err != nil {
		logging.ErrorLogger.Error("loading daily state", zap.Error(err))
		return
	}
	if state.LastProcessedDate != nil && dao.StartOfDay(*state.LastProcessedDate).Equal(today) && state.MorningMessage != nil {
		return
	}

	yesterday := today.AddDate(0, 0, -1)
	prevSummary := o.fetchSummary(ctx, yesterday)
	if prevSummary == "" {
		prevSummary = o.summarizeDate(ctx, yesterday, o.fetchSummary(ctx, yesterday.AddDate(0, 0, -1)))
	}

	message := o.generateMorningMessage(ctx, prevSummary)
	if err := o.state.SetMorningMessage(ctx, today, message); err != nil {
		logging.ErrorLogger.Error("persisting morning message", zap.Error(err))
	}
}

// MorningMessage returns the stored greeting for today, generating it first if
// the day has not been processed yet.
func (o *DailyOrchestrator) MorningMessage(ctx context.Context) (string, error) {
	o.ProcessCurrentDay(ctx)

	state, err := o.state.Get(ctx)
	if err != nil {
		return "", err
	}
	today := dao.StartOfDay(o.now())
	if state.MorningMessage != nil && state.LastProcessedDate != nil && dao.StartOfDay(*state.LastProcessedDate).Equal(today) {
		return *state.MorningMessage, nil
	}
	return regularFallback, nil
}

// generateMorningMessage builds the day's opening prompt. First-day users get
// a welcome variant; afterwards yesterday's summary seeds the greeting. A
// generation failure degrades to a canned greeting rather than surfacing.
func (o *DailyOrchestrator) generateMorningMessage(ctx context.Context, prevSummary string) string {
	hasHistory, err := o.store.HasAnyConversation(ctx)
	if err != nil {
		logging.ErrorLogger.Error("checking conversation history", zap.Error(err))
		hasHistory = false
	}

	prompt := o.prompts.MorningDaily
	content := prevSummary
	fallback := regularFallback
	if !hasHistory {
		prompt = o.prompts.MorningFirst
		content = "This is the first day of the journey."
		fallback = firstDayFallback
	} else if content == "" {
		content = "No summary is available for yesterday. Offer a fresh start."
	}

	message, err := o.llm.SendSingleMessage(ctx, content, prompt)
	if err != nil {
		logging.ErrorLogger.Error("morning message generation failed",
			zap.String("kind", string(llm.KindOf(err))),
		)
		return fallback
	}
	return textutils.CleanCompletion(message)
}

// StartDayMonitoring polls for day changes until ctx is cancelled. The
// returned channel closes once the loop exits.
func (o *DailyOrchestrator) StartDayMonitoring(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.ProcessCurrentDay(ctx)
			}
		}
	}()
	return done
}
