package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/database"
	"github.com/zumu-ai/knowledgedb/pkg/metrics"
)

// Placeholder stored in contact and status columns the platform does not use
// yet but the shards require to be non-null.
const placeholderValue = "doesnt matter"

// base carries what every family repository needs: its own shard, a logger
// and a tracer. Repositories embed it; each one talks only to its own shard
// and reaches other families by calling their repositories.
type base struct {
	shard  *database.Shard
	logger *slog.Logger
	tracer trace.Tracer
}

func newBase(shard *database.Shard, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		shard:  shard,
		logger: logger,
		tracer: otel.Tracer("knowledgedb/repository"),
	}
}

// instrument opens a span and returns a completion func that records the
// span status and operation metrics. Use with named error returns:
//
//	ctx, done := r.instrument(ctx, "create_chat")
//	defer func() { done(err) }()
func (b base) instrument(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := b.tracer.Start(ctx, string(b.shard.Family())+"."+operation)
	return ctx, func(err error) {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		metrics.ObserveOperation(string(b.shard.Family()), operation, err, time.Since(start))
	}
}

// commit runs fn inside one transaction on the repository's own shard. The
// write is atomic within the shard: on any failure the transaction rolls
// back and the caller gets a PersistenceError (or the typed error fn
// returned). There are no automatic retries and no cross-shard transactions.
func (b base) commit(ctx context.Context, operation string, fn func(*sql.Tx) error) error {
	tx, err := b.shard.DB().BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: operation, Err: err}
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			b.logger.Error("rollback failed",
				slog.String("operation", operation),
				slog.String("error", rbErr.Error()),
			)
		}
		return wrapWriteError(operation, err)
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: operation, Err: err}
	}
	return nil
}

// wrapWriteError keeps typed domain errors intact and wraps everything else
// as a persistence failure.
func wrapWriteError(operation string, err error) error {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return err
	}
	var persistence *domain.PersistenceError
	if errors.As(err, &persistence) {
		return err
	}
	return &domain.PersistenceError{Op: operation, Err: err}
}

// now stamps created_at/updated_at values.
func now() time.Time {
	return time.Now().UTC()
}
