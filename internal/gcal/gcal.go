// Package gcal implements the calendar store against the Google Calendar v3
// API using a service account.
//
// The service-account key is supplied as raw JSON (typically via the
// GOOGLE_CREDENTIALS_JSON secret) and the target calendar must be shared with
// the service account with "Make changes to events" permission.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"matchcal/internal/reconcile"
)

// Client talks to one Google calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	timezone   string
	email      string
}

// NewClient builds a calendar client from a service-account key.
func NewClient(ctx context.Context, credentialsJSON []byte, calendarID, timezone string) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("missing Google credentials (set GOOGLE_CREDENTIALS_JSON)")
	}

	svc, err := calendar.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(calendar.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("building calendar service: %w", err)
	}

	return &Client{
		svc:        svc,
		calendarID: calendarID,
		timezone:   timezone,
		email:      serviceAccountEmail(credentialsJSON),
	}, nil
}

// VerifyAccess checks the calendar is reachable before any discovery work.
// Failure here is fatal to the run: no candidate state change is meaningful
// without calendar access.
func (c *Client) VerifyAccess(ctx context.Context) error {
	_, err := c.svc.Calendars.Get(c.calendarID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("calendar %q not accessible (share it with %s): %w", c.calendarID, c.email, err)
	}
	return nil
}

// ListEvents returns non-all-day events in [timeMin, timeMax] matching query.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time, query string) ([]reconcile.Event, error) {
	call := c.svc.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)
	if query != "" {
		call = call.Q(query)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	events := make([]reconcile.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Start == nil || item.Start.DateTime == "" {
			// All-day events carry only a date; they are never match entries.
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		ev := reconcile.Event{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Start:       start,
		}
		if item.End != nil && item.End.DateTime != "" {
			if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
				ev.End = end
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// CreateEvent inserts a new event and returns its id.
func (c *Client) CreateEvent(ctx context.Context, ev reconcile.Event) (string, error) {
	created, err := c.svc.Events.Insert(c.calendarID, c.toAPI(ev)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("inserting event: %w", err)
	}
	return created.Id, nil
}

// PatchEvent rewrites the summary and times of an existing event.
func (c *Client) PatchEvent(ctx context.Context, id string, ev reconcile.Event) error {
	if _, err := c.svc.Events.Patch(c.calendarID, id, c.toAPI(ev)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("patching event: %w", err)
	}
	return nil
}

func (c *Client) toAPI(ev reconcile.Event) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
	}
}

// serviceAccountEmail extracts client_email for error messages; the most
// common misconfiguration is a calendar not shared with the account.
func serviceAccountEmail(credentialsJSON []byte) string {
	var key struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(credentialsJSON, &key); err != nil || key.ClientEmail == "" {
		return "the service account"
	}
	return key.ClientEmail
}
