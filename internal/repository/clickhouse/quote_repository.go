package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"volguard/pkg/clickhouse"
	"volguard/pkg/errors"

	"volguard/internal/domain/option"
	"volguard/internal/metrics"
)

// Compile-time check
var _ option.Repository = (*QuoteRepository)(nil)

// QuoteRepository implements option.Repository for ClickHouse.
// Inserts go through a batch writer: the quote firehose is far too
// chatty for single-row ClickHouse inserts.
type QuoteRepository struct {
	conn        driver.Conn
	batchWriter *clickhouse.BatchWriter
}

// NewQuoteRepository creates a new quote repository with batch writer
func NewQuoteRepository(conn driver.Conn) *QuoteRepository {
	repo := &QuoteRepository{conn: conn}

	repo.batchWriter = clickhouse.NewBatchWriter(clickhouse.BatchWriterConfig{
		FlushFunc:    repo.flushBatch,
		TableName:    "option_quotes",
		MaxBatchSize: 500,
		MaxAge:       5 * time.Second,
	})

	return repo
}

// Start begins the background flush loop
func (r *QuoteRepository) Start(ctx context.Context) {
	r.batchWriter.Start(ctx)
}

// Stop flushes remaining quotes and shuts down the writer
func (r *QuoteRepository) Stop(ctx context.Context) error {
	return r.batchWriter.Stop(ctx)
}

// InsertQuotes buffers a batch of quotes for insertion
func (r *QuoteRepository) InsertQuotes(ctx context.Context, quotes []option.Quote) error {
	for i := range quotes {
		if err := r.batchWriter.Add(ctx, &quotes[i]); err != nil {
			return err
		}
	}
	return nil
}

// flushBatch performs one batch INSERT for all buffered quotes
func (r *QuoteRepository) flushBatch(ctx context.Context, batch []interface{}) error {
	if len(batch) == 0 {
		return nil
	}

	query := `
		INSERT INTO option_quotes (
			symbol, exchange, timestamp, option_type, strike, expiry,
			underlying_price, option_price, volume, open_interest,
			implied_volatility, delta, gamma, theta, vega
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	prepared, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return errors.Wrap(err, "prepare quote batch")
	}

	for _, item := range batch {
		q, ok := item.(*option.Quote)
		if !ok {
			return errors.New("invalid batch item: expected *option.Quote")
		}

		if err := prepared.Append(
			q.Symbol, q.Exchange, q.Timestamp, string(q.OptionType), q.Strike, q.Expiry,
			q.UnderlyingPrice, q.OptionPrice, q.Volume, q.OpenInterest,
			q.ImpliedVolatility, q.Delta, q.Gamma, q.Theta, q.Vega,
		); err != nil {
			return errors.Wrap(err, "append quote to batch")
		}
	}

	if err := prepared.Send(); err != nil {
		metrics.DBQueries.WithLabelValues("clickhouse", "insert_batch", "error").Inc()
		return errors.Wrap(err, "send quote batch")
	}

	metrics.DBQueries.WithLabelValues("clickhouse", "insert_batch", "ok").Inc()
	return nil
}

// GetWindow returns all quotes for a symbol within [from, to)
func (r *QuoteRepository) GetWindow(ctx context.Context, symbol string, from, to time.Time) ([]option.Quote, error) {
	query := `
		SELECT
			symbol, exchange, timestamp, option_type, strike, expiry,
			underlying_price, option_price, volume, open_interest,
			implied_volatility, delta, gamma, theta, vega
		FROM option_quotes
		WHERE symbol = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
	`

	rows, err := r.conn.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "query quote window")
	}
	defer rows.Close()

	var quotes []option.Quote
	for rows.Next() {
		var q option.Quote
		var optType string
		if err := rows.Scan(
			&q.Symbol, &q.Exchange, &q.Timestamp, &optType, &q.Strike, &q.Expiry,
			&q.UnderlyingPrice, &q.OptionPrice, &q.Volume, &q.OpenInterest,
			&q.ImpliedVolatility, &q.Delta, &q.Gamma, &q.Theta, &q.Vega,
		); err != nil {
			return nil, errors.Wrap(err, "scan quote row")
		}
		q.OptionType = option.Type(optType)
		quotes = append(quotes, q)
	}

	return quotes, rows.Err()
}

// GetLatestUnderlyingPrice returns the most recently observed underlying
// price for a symbol
func (r *QuoteRepository) GetLatestUnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	query := `
		SELECT underlying_price
		FROM option_quotes
		WHERE symbol = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var price float64
	if err := r.conn.QueryRow(ctx, query, symbol).Scan(&price); err != nil {
		return 0, errors.ErrNoQuoteData
	}

	return price, nil
}

// DeleteOlderThan removes quotes older than the cutoff. ClickHouse
// mutations are asynchronous; this schedules the delete.
func (r *QuoteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	query := `ALTER TABLE option_quotes DELETE WHERE timestamp < ?`

	if err := r.conn.Exec(ctx, query, cutoff); err != nil {
		return errors.Wrap(err, "delete old quotes")
	}

	return nil
}
