package backup

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/greinacker/tvbackup/logging"
	"github.com/greinacker/tvbackup/tradervue"
)

// fakeClient serves canned records. Details, executions and comments are
// present only for ids in their maps; ids in an err map fail with a transport
// error instead.
type fakeClient struct {
	journals  []json.RawMessage
	notes     []json.RawMessage
	summaries []tradervue.TradeSummary

	details  map[int64]tradervue.TradeDetail
	execs    map[int64][]json.RawMessage
	comments map[int64][]json.RawMessage

	listErr    error
	detailErrs map[int64]error
	execErrs   map[int64]error
}

func (f *fakeClient) Journals(ctx context.Context) ([]json.RawMessage, error) {
	return f.journals, f.listErr
}

func (f *fakeClient) Notes(ctx context.Context) ([]json.RawMessage, error) {
	return f.notes, nil
}

func (f *fakeClient) Trades(ctx context.Context) ([]tradervue.TradeSummary, error) {
	return f.summaries, nil
}

func (f *fakeClient) Trade(ctx context.Context, id int64) (optional.Option[tradervue.TradeDetail], error) {
	if err := f.detailErrs[id]; err != nil {
		return optional.None[tradervue.TradeDetail](), err
	}
	if d, ok := f.details[id]; ok {
		return optional.Some(d), nil
	}
	return optional.None[tradervue.TradeDetail](), nil
}

func (f *fakeClient) TradeExecutions(ctx context.Context, id int64) (optional.Option[[]json.RawMessage], error) {
	if err := f.execErrs[id]; err != nil {
		return optional.None[[]json.RawMessage](), err
	}
	if e, ok := f.execs[id]; ok {
		return optional.Some(e), nil
	}
	return optional.None[[]json.RawMessage](), nil
}

func (f *fakeClient) TradeComments(ctx context.Context, id int64) (optional.Option[[]json.RawMessage], error) {
	if c, ok := f.comments[id]; ok {
		return optional.Some(c), nil
	}
	return optional.None[[]json.RawMessage](), nil
}

func newTestLogger() (*zap.Logger, *logging.ErrorCounter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger, counter := logging.Attach(zap.New(core))
	return logger, counter, logs
}

func summaries(ids ...int64) []tradervue.TradeSummary {
	s := make([]tradervue.TradeSummary, 0, len(ids))
	for _, id := range ids {
		s = append(s, tradervue.TradeSummary{ID: id})
	}
	return s
}

func TestRunAllTradesSucceed(t *testing.T) {
	client := &fakeClient{
		summaries: summaries(1, 2, 3),
		details: map[int64]tradervue.TradeDetail{
			1: {"id": float64(1), "symbol": "AAPL"},
			2: {"id": float64(2), "symbol": "MSFT"},
			3: {"id": float64(3), "symbol": "NVDA"},
		},
	}
	log, counter, _ := newTestLogger()

	doc, report, err := New(client, log).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.Trades, 3)
	assert.Equal(t, 3, report.Trades)
	assert.Empty(t, report.SkippedTrades)
	assert.Equal(t, int64(0), counter.Count())

	// Order follows the trade list.
	assert.Equal(t, "AAPL", doc.Trades[0]["symbol"])
	assert.Equal(t, "NVDA", doc.Trades[2]["symbol"])
}

func TestRunSkipsMissingTradeDetails(t *testing.T) {
	client := &fakeClient{
		summaries: summaries(1, 2, 3, 4),
		details: map[int64]tradervue.TradeDetail{
			1: {"symbol": "AAPL"},
			4: {"symbol": "TSLA"},
		},
	}
	log, counter, logs := newTestLogger()

	doc, report, err := New(client, log).Run(context.Background())
	require.NoError(t, err)

	// 4 summaries, 2 missing details: the run continues and loses exactly
	// the bad trades.
	assert.Len(t, doc.Trades, 2)
	assert.Equal(t, []int64{2, 3}, report.SkippedTrades)
	assert.GreaterOrEqual(t, counter.Count(), int64(2))
	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRunDetailTransportErrorSkipsTrade(t *testing.T) {
	client := &fakeClient{
		summaries:  summaries(1, 2),
		details:    map[int64]tradervue.TradeDetail{2: {"symbol": "MSFT"}},
		detailErrs: map[int64]error{1: errors.New("connection reset")},
	}
	log, counter, _ := newTestLogger()

	doc, report, err := New(client, log).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.Trades, 1)
	assert.Equal(t, []int64{1}, report.SkippedTrades)
	assert.Equal(t, int64(1), counter.Count())
}

func TestEnrichmentGating(t *testing.T) {
	execRecords := []json.RawMessage{json.RawMessage(`{"id": 10}`), json.RawMessage(`{"id": 11}`)}
	commentRecords := []json.RawMessage{json.RawMessage(`{"id": 20}`)}

	tests := []struct {
		name         string
		detail       tradervue.TradeDetail
		execs        map[int64][]json.RawMessage
		comments     map[int64][]json.RawMessage
		execErrs     map[int64]error
		wantExecs    bool
		wantComments bool
	}{
		{
			name:   "zero counts fetch nothing",
			detail: tradervue.TradeDetail{"exec_count": float64(0), "comment_count": float64(0)},
		},
		{
			name:      "positive exec count attaches executions",
			detail:    tradervue.TradeDetail{"exec_count": float64(2), "comment_count": float64(0)},
			execs:     map[int64][]json.RawMessage{1: execRecords},
			wantExecs: true,
		},
		{
			name:   "exec sub-fetch not found omits field",
			detail: tradervue.TradeDetail{"exec_count": float64(2), "comment_count": float64(0)},
		},
		{
			name:     "exec sub-fetch transport error omits field",
			detail:   tradervue.TradeDetail{"exec_count": float64(2), "comment_count": float64(0)},
			execErrs: map[int64]error{1: errors.New("timeout")},
		},
		{
			name:         "positive comment count attaches comments",
			detail:       tradervue.TradeDetail{"exec_count": float64(0), "comment_count": float64(1)},
			comments:     map[int64][]json.RawMessage{1: commentRecords},
			wantComments: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				summaries: summaries(1),
				details:   map[int64]tradervue.TradeDetail{1: tt.detail},
				execs:     tt.execs,
				comments:  tt.comments,
				execErrs:  tt.execErrs,
			}
			log, counter, _ := newTestLogger()

			doc, _, err := New(client, log).Run(context.Background())
			require.NoError(t, err)
			require.Len(t, doc.Trades, 1)

			_, hasExecs := doc.Trades[0]["executions"]
			_, hasComments := doc.Trades[0]["comments"]
			assert.Equal(t, tt.wantExecs, hasExecs)
			assert.Equal(t, tt.wantComments, hasComments)

			// Sub-fetch failures never count as run errors.
			assert.Equal(t, int64(0), counter.Count())
		})
	}
}

func TestRunJournalListErrorIsFatal(t *testing.T) {
	client := &fakeClient{listErr: errors.New("boom")}
	log, _, _ := newTestLogger()

	_, _, err := New(client, log).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch journal entries")
}

func TestRunEndToEnd(t *testing.T) {
	// 3 journals, 2 notes, trade A enriched with executions only, trade B
	// not found on detail fetch. The document keeps everything else and the
	// counter records exactly the one lost trade.
	client := &fakeClient{
		journals: []json.RawMessage{
			json.RawMessage(`{"date": "2024-01-02"}`),
			json.RawMessage(`{"date": "2024-01-03"}`),
			json.RawMessage(`{"date": "2024-01-04"}`),
		},
		notes: []json.RawMessage{
			json.RawMessage(`{"id": 1}`),
			json.RawMessage(`{"id": 2}`),
		},
		summaries: summaries(100, 200),
		details: map[int64]tradervue.TradeDetail{
			100: {"id": float64(100), "symbol": "AAPL", "exec_count": float64(2), "comment_count": float64(0)},
		},
		execs: map[int64][]json.RawMessage{
			100: {json.RawMessage(`{"id": 1}`), json.RawMessage(`{"id": 2}`)},
		},
	}
	log, counter, logs := newTestLogger()

	doc, report, err := New(client, log).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, doc.Journals, 3)
	assert.Len(t, doc.Notes, 2)
	require.Len(t, doc.Trades, 1)

	trade := doc.Trades[0]
	assert.Equal(t, "AAPL", trade["symbol"])
	assert.Contains(t, trade, "executions")
	assert.NotContains(t, trade, "comments")

	assert.Equal(t, Report{Journals: 3, Notes: 2, Trades: 1, SkippedTrades: []int64{200}}, report)
	assert.Equal(t, int64(1), counter.Count())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRunEmptyAccountMarshalsEmptyArrays(t *testing.T) {
	client := &fakeClient{}
	log, _, _ := newTestLogger()

	doc, report, err := New(client, log).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"journals": [], "notes": [], "trades": []}`, string(data))
}
