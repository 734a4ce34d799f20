package schedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

const maxErrorBody = 2048

// RangeQuery selects records whose day falls within [Start, End], both inclusive.
type RangeQuery struct {
	Start string `url:"start"`
	End   string `url:"end"`
}

type MonthQuery struct {
	Month string `url:"month"`
}

// CreateAppointmentRequest is the body of POST /appointments.
type CreateAppointmentRequest struct {
	PatientName  string             `json:"patient_name"`
	PatientPhone string             `json:"patient_phone"`
	SlotID       string             `json:"slot_id"`
	VisitType    calendar.VisitType `json:"visit_type"`
	Notes        string             `json:"notes,omitempty"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse scheduling api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("scheduling api url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{baseURL: u, http: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Appointments(ctx context.Context, start, end time.Time) ([]calendar.Appointment, error) {
	var out []calendar.Appointment
	q := RangeQuery{Start: calendar.DayString(start), End: calendar.DayString(end)}
	if err := c.do(ctx, http.MethodGet, "/appointments", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Slots(ctx context.Context, start, end time.Time) ([]calendar.Slot, error) {
	var out []calendar.Slot
	q := RangeQuery{Start: calendar.DayString(start), End: calendar.DayString(end)}
	if err := c.do(ctx, http.MethodGet, "/slots", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MonthAggregate returns the per-day summary for the month containing month.
func (c *Client) MonthAggregate(ctx context.Context, month time.Time) ([]calendar.DayAggregate, error) {
	var out []calendar.DayAggregate
	q := MonthQuery{Month: calendar.MonthString(month)}
	if err := c.do(ctx, http.MethodGet, "/calendar", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*calendar.Appointment, error) {
	var out calendar.Appointment
	if err := c.do(ctx, http.MethodPost, "/appointments", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AppointmentDetails(ctx context.Context, bookingID string) (*calendar.AppointmentDetails, error) {
	var out calendar.AppointmentDetails
	path := "/appointments/" + bookingID + "/details"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, params, body, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("encode query: %w", err)
		}
		u.RawQuery = v.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", ErrTransport, method, path, err)
	}
	return nil
}
