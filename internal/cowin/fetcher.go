package cowin

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
)

// DateLayout is the date format the calendar endpoints expect.
const DateLayout = "02-01-2006"

// QueryDate is the day a run asks about: today, or tomorrow when only
// actionable slots are mailed.
func QueryDate(now time.Time, mailIfAvailable bool, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	if mailIfAvailable {
		now = now.AddDate(0, 0, 1)
	}
	return now.Format(DateLayout)
}

// Target is one district to query directly by id.
type Target struct {
	DistrictID int
	Main       bool
}

type Fetcher struct {
	client *Client
	log    logrus.FieldLogger
}

func NewFetcher(client *Client, log logrus.FieldLogger) *Fetcher {
	return &Fetcher{client: client, log: log}
}

// Fetch queries the public calendar of one district. Failures come back as a
// *FetchError so the caller can report the district individually.
func (f *Fetcher) Fetch(ctx context.Context, districtID int, date string) (*CowinSlots, error) {
	return f.client.Calendar(ctx, f.client.CalendarURL(districtID, date, false))
}

// FetchAll queries every target concurrently and waits for all of them. The
// result is index-aligned with targets; a failed call yields EmptySlots.
func (f *Fetcher) FetchAll(ctx context.Context, targets []Target, date string) []*CowinSlots {
	// One goroutine per district; the default mapper caps at GOMAXPROCS.
	mapper := iter.Mapper[Target, *CowinSlots]{MaxGoroutines: len(targets)}
	return mapper.Map(targets, func(t *Target) *CowinSlots {
		url := f.client.CalendarURL(t.DistrictID, date, t.Main)
		slots, err := f.client.Calendar(ctx, url)
		if err == nil {
			return slots
		}
		status := 0
		var fe *FetchError
		if errors.As(err, &fe) {
			status = fe.StatusCode
		}
		f.log.WithError(err).WithField("url", url).Warn("availability call failed")
		return EmptySlots(url, status)
	})
}
