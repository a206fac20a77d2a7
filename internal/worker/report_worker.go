package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cashdesk/internal/dto"

	"github.com/rs/zerolog/log"
)

// ReportSender delivers a rendered report. *infra.Mailer implements it.
type ReportSender interface {
	SendReport(to []string, subject, body string) error
}

// ReportWorker emails the close report of every closed session.
type ReportWorker struct {
	sender      ReportSender
	recipients  []string
	places      int32
	maxAttempts int
	backoff     time.Duration
}

// NewReportWorker formats money with places decimals.
func NewReportWorker(sender ReportSender, recipients []string, places int32) *ReportWorker {
	return &ReportWorker{sender: sender, recipients: recipients, places: places, maxAttempts: 3, backoff: time.Second}
}

func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var s dto.SessionResponse
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("report_worker: invalid payload: %w", err)
	}
	if s.Summary == nil {
		return fmt.Errorf("report_worker: session %s has no summary", s.Code)
	}

	subject := fmt.Sprintf("Session %s closed (%s)", s.Code, s.Summary.DiscrepancyLevel)
	body := RenderSessionReport(s, w.places)

	err := withRetry(ctx, w.maxAttempts, w.backoff, func(attempt int) error {
		err := w.sender.SendReport(w.recipients, subject, body)
		if err != nil {
			log.Warn().Err(err).
				Int("attempt", attempt+1).
				Str("session", s.Code).
				Msg("report_worker: send failed")
		}
		return err
	})
	if err != nil {
		return err
	}
	log.Info().Str("session", s.Code).Int("recipients", len(w.recipients)).Msg("report_worker: close report sent")
	return nil
}

// RenderSessionReport lays out a closed session as plain text.
func RenderSessionReport(s dto.SessionResponse, places int32) string {
	var b strings.Builder
	row := func(label, value string) { fmt.Fprintf(&b, "%-20s %s\n", label, value) }

	fmt.Fprintf(&b, "Cash session %s\n\n", s.Code)
	row("Operator", s.OperatorID)
	if s.RegisterID != nil {
		row("Register", *s.RegisterID)
	}
	row("Opened", s.OpenedAt)
	if s.ClosedAt != nil {
		row("Closed", *s.ClosedAt)
	}
	b.WriteString("\n")

	sum := s.Summary
	row("Opening cash", s.OpeningCash.StringFixed(places))
	row("Cash sales", sum.CashSales.StringFixed(places))
	row("Card sales", sum.CardSales.StringFixed(places))
	row("Other sales", sum.OtherSales.StringFixed(places))
	row("Cash refunds", sum.CashRefunds.StringFixed(places))
	row("Withdrawals", sum.Withdrawals.StringFixed(places))
	row("Deposits", sum.Deposits.StringFixed(places))
	row("Transactions", fmt.Sprintf("%d", sum.TotalTransactions))
	b.WriteString("\n")

	row("Expected cash", sum.ExpectedCash.StringFixed(places))
	if s.ClosingCash != nil {
		row("Counted cash", s.ClosingCash.StringFixed(places))
	}
	row("Difference", sum.CashDifference.StringFixed(places))
	row("Discrepancy", fmt.Sprintf("%s%% (%s)", sum.DiscrepancyPct.StringFixed(places), sum.DiscrepancyLevel))
	if s.ClosingNotes != nil && *s.ClosingNotes != "" {
		b.WriteString("\nNotes: " + *s.ClosingNotes + "\n")
	}
	return b.String()
}
