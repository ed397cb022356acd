package cowin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	DefaultAPIPrefix         = "https://cdn-api.co-vin.in/api/v2"
	DefaultAppointmentPrefix = DefaultAPIPrefix + "/appointment/sessions"

	userAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:88.0) Gecko/20100101 Firefox/88.0"
)

// FetchError describes a failed upstream call. StatusCode is 0 for transport
// errors.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cowin: GET %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("cowin: GET %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Catalog lists the states and districts known to the upstream API.
type Catalog interface {
	States(ctx context.Context) (*CowinStates, error)
	Districts(ctx context.Context, stateID int) (*CowinDistricts, error)
}

// Client talks to the CoWIN public API. It makes exactly one attempt per call.
type Client struct {
	httpClient        *http.Client
	apiPrefix         string
	appointmentPrefix string
}

func NewClient(apiPrefix, appointmentPrefix string, timeout time.Duration) *Client {
	if apiPrefix == "" {
		apiPrefix = DefaultAPIPrefix
	}
	if appointmentPrefix == "" {
		appointmentPrefix = DefaultAppointmentPrefix
	}
	return &Client{
		httpClient:        &http.Client{Timeout: timeout},
		apiPrefix:         strings.TrimRight(apiPrefix, "/"),
		appointmentPrefix: strings.TrimRight(appointmentPrefix, "/"),
	}
}

func (c *Client) States(ctx context.Context) (*CowinStates, error) {
	states := &CowinStates{}
	if _, err := c.getJSON(ctx, c.apiPrefix+"/admin/location/states", states); err != nil {
		return nil, err
	}
	return states, nil
}

func (c *Client) Districts(ctx context.Context, stateID int) (*CowinDistricts, error) {
	districts := &CowinDistricts{}
	url := fmt.Sprintf("%s/admin/location/districts/%d", c.apiPrefix, stateID)
	if _, err := c.getJSON(ctx, url, districts); err != nil {
		return nil, err
	}
	return districts, nil
}

// CalendarURL builds the calendarByDistrict URL. The /public segment is
// dropped when main is true.
func (c *Client) CalendarURL(districtID int, date string, main bool) string {
	segment := "/public"
	if main {
		segment = ""
	}
	return fmt.Sprintf("%s%s/calendarByDistrict?district_id=%d&date=%s", c.appointmentPrefix, segment, districtID, date)
}

func (c *Client) Calendar(ctx context.Context, url string) (*CowinSlots, error) {
	slots := &CowinSlots{}
	body, err := c.getJSON(ctx, url, slots)
	if err != nil {
		return nil, err
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err == nil {
		for k := range top {
			slots.Keys = append(slots.Keys, k)
		}
		sort.Strings(slots.Keys)
	}
	slots.URL = url
	return slots, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) ([]byte, error) {
	res, err := c.makeRequest(ctx, url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer res.Body.Close()

	resBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode, Err: err}
	}
	if res.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode}
	}
	if err := json.Unmarshal(resBytes, out); err != nil {
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return resBytes, nil
}

func (c *Client) makeRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("DNT", "1")
	req.Header.Set("User-Agent", userAgent)
	return c.httpClient.Do(req)
}
