package engine

import (
	"context"

	"github.com/rs/zerolog"

	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/pkg/sync/port"
)

// Deleter issues one independent delete request per selected message. There
// is no atomicity across the batch: successes are merged as soft-delete
// observations even when other ids fail, and the failures are reported as a
// single aggregated *DeleteError.
type Deleter struct {
	api    port.API
	sink   EventSink
	logger zerolog.Logger
}

// NewDeleter wires a deleter to the REST collaborator and the merge queue.
func NewDeleter(api port.API, sink EventSink, logger zerolog.Logger) *Deleter {
	return &Deleter{api: api, sink: sink, logger: logger}
}

// Delete requests a soft delete for each id and merges every confirmed
// mutation. Already-applied deletions are never rolled back.
func (d *Deleter) Delete(ctx context.Context, selfID string, ids []string) error {
	var (
		failed []string
		errs   []error
	)
	for _, id := range ids {
		rec, err := d.api.DeleteMessage(ctx, id)
		if err != nil {
			d.logger.Warn().Err(err).Str("message", id).Msg("delete failed")
			failed = append(failed, id)
			errs = append(errs, err)
			continue
		}
		d.sink.Enqueue(Event{
			Type:     EventMessagesObserved,
			PeerID:   rec.PeerOf(selfID),
			Messages: []domain.Message{rec},
			Source:   SourceDelete,
		})
	}
	if len(errs) > 0 {
		return &DeleteError{FailedIDs: failed, Errs: errs}
	}
	return nil
}
