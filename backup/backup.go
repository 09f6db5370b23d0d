// Package backup drives the export of a Tradervue account into a single
// document: all journal entries, all notes, and every trade enriched with its
// executions and comments.
//
// The run is deliberately tolerant of per-trade failures. A trade whose
// detail cannot be fetched is logged and dropped; a missing executions or
// comments sub-fetch just leaves the field off. Only a failure fetching a
// whole collection aborts the run.
package backup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/greinacker/tvbackup/tradervue"
)

// Client is the slice of the Tradervue API a backup needs.
type Client interface {
	Journals(ctx context.Context) ([]json.RawMessage, error)
	Notes(ctx context.Context) ([]json.RawMessage, error)
	Trades(ctx context.Context) ([]tradervue.TradeSummary, error)
	Trade(ctx context.Context, id int64) (optional.Option[tradervue.TradeDetail], error)
	TradeExecutions(ctx context.Context, id int64) (optional.Option[[]json.RawMessage], error)
	TradeComments(ctx context.Context, id int64) (optional.Option[[]json.RawMessage], error)
}

// Document is the exported backup. Sequences keep the API's order; trades
// carry their executions/comments inline when present.
type Document struct {
	Journals []json.RawMessage       `json:"journals"`
	Notes    []json.RawMessage       `json:"notes"`
	Trades   []tradervue.TradeDetail `json:"trades"`
}

// Report summarizes a run for callers that need more than a log stream: the
// counts that made it into the document and the trades that did not.
type Report struct {
	Journals int
	Notes    int
	Trades   int
	// SkippedTrades lists, in encounter order, trade ids whose detail fetch
	// failed. len(SkippedTrades) + Trades equals the summary count.
	SkippedTrades []int64
}

// Backup orchestrates one export run.
type Backup struct {
	client Client
	log    *zap.Logger
}

// New creates a backup orchestrator.
func New(client Client, log *zap.Logger) *Backup {
	return &Backup{client: client, log: log}
}

// Run fetches everything and assembles the export document. The returned
// error is fatal (a whole collection could not be listed); per-trade losses
// instead surface as ERROR log entries and Report.SkippedTrades.
func (b *Backup) Run(ctx context.Context) (*Document, Report, error) {
	report := Report{}

	journals, err := b.client.Journals(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("fetch journal entries: %w", err)
	}
	report.Journals = len(journals)
	b.log.Info("fetched journal entries", zap.Int("count", len(journals)))

	notes, err := b.client.Notes(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("fetch notes: %w", err)
	}
	report.Notes = len(notes)
	b.log.Info("fetched notes", zap.Int("count", len(notes)))

	summaries, err := b.client.Trades(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("fetch trade list: %w", err)
	}
	b.log.Info("fetched trade list", zap.Int("count", len(summaries)))

	trades := make([]tradervue.TradeDetail, 0, len(summaries))
	for _, summary := range summaries {
		detail, ok := b.fetchDetail(ctx, summary.ID)
		if !ok {
			report.SkippedTrades = append(report.SkippedTrades, summary.ID)
			continue
		}

		b.enrich(ctx, summary.ID, detail)
		trades = append(trades, detail)
	}
	report.Trades = len(trades)

	// Empty collections must serialize as [], not null.
	doc := &Document{
		Journals: nonNil(journals),
		Notes:    nonNil(notes),
		Trades:   trades,
	}
	return doc, report, nil
}

func nonNil(records []json.RawMessage) []json.RawMessage {
	if records == nil {
		return []json.RawMessage{}
	}
	return records
}

// fetchDetail pulls one trade's full record. Any failure here loses the whole
// trade, which is the one per-item loss worth an ERROR: it shrinks the backup
// in a way the caller can see.
func (b *Backup) fetchDetail(ctx context.Context, id int64) (tradervue.TradeDetail, bool) {
	detail, err := b.client.Trade(ctx, id)
	if err != nil {
		b.log.Error("unable to fetch trade detail; skipping trade",
			zap.Int64("trade_id", id),
			zap.Error(err))
		return nil, false
	}
	if detail.IsNone() {
		b.log.Error("trade not found; skipping trade", zap.Int64("trade_id", id))
		return nil, false
	}
	return detail.Unwrap(), true
}

// enrich attaches executions and comments to a trade detail when its counts
// say they exist. A failed sub-fetch leaves the field absent without an
// ERROR; absence doubles as the failure signal at this level.
func (b *Backup) enrich(ctx context.Context, id int64, detail tradervue.TradeDetail) {
	if detail.ExecCount() > 0 {
		execs, err := b.client.TradeExecutions(ctx, id)
		if err == nil && execs.IsSome() {
			detail["executions"] = execs.Unwrap()
		} else {
			b.log.Debug("executions unavailable; omitting", zap.Int64("trade_id", id))
		}
	}

	if detail.CommentCount() > 0 {
		comments, err := b.client.TradeComments(ctx, id)
		if err == nil && comments.IsSome() {
			detail["comments"] = comments.Unwrap()
		} else {
			b.log.Debug("comments unavailable; omitting", zap.Int64("trade_id", id))
		}
	}
}
