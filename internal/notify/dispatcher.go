package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DispatchResult summarises one dispatch pass.
type DispatchResult struct {
	Sent   int
	Failed int
	// Err joins the per-batch send errors.
	Err error
}

type Dispatcher struct {
	open Opener
	from string
	log  logrus.FieldLogger
}

func NewDispatcher(open Opener, from string, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{open: open, from: from, log: log}
}

// Dispatch sends every batch over a single transport session. The session is
// opened only when there is something to send and is always closed. A failed
// batch is logged and skipped; an error is returned only when the session
// cannot be opened.
func (d *Dispatcher) Dispatch(ctx context.Context, batches []MailBatch) (result DispatchResult, err error) {
	if len(batches) == 0 {
		return result, nil
	}
	transport, err := d.open(ctx)
	if err != nil {
		return result, fmt.Errorf("open transport: %w", err)
	}
	defer func() {
		if cerr := transport.Close(); cerr != nil {
			d.log.WithError(cerr).Warn("closing mail transport failed")
		}
	}()

	var errs []error
	for _, batch := range batches {
		msg := Message{
			From:     d.from,
			Bcc:      batch.Recipients,
			Subject:  batch.Subject,
			HTMLBody: batch.Body,
		}
		if err := transport.Send(ctx, msg); err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("%q: %w", batch.Subject, err))
			d.log.WithError(err).WithFields(logrus.Fields{
				"subject":    batch.Subject,
				"recipients": batch.Recipients,
			}).Error("sending mail batch failed")
			continue
		}
		result.Sent++
		d.log.WithFields(logrus.Fields{
			"subject":    batch.Subject,
			"recipients": len(batch.Recipients),
		}).Debug("mail batch sent")
	}
	result.Err = errors.Join(errs...)
	return result, nil
}
