package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client issues read requests against the remote catalog service. It is safe
// for concurrent use. The zero value is not usable; construct with NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the given base URL (e.g.
// "https://api.example.org/v2"). timeout bounds each individual request in
// addition to whatever deadline the caller's context carries; zero means
// 15 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchEvents requests the event catalog. When since is nil the full catalog
// is returned; otherwise only events changed after since plus the explicit
// tombstone list. The server is the sole authority on deletions.
func (c *Client) FetchEvents(ctx context.Context, since *time.Time) (EventDelta, error) {
	endpoint := c.baseURL + "/events"
	if since != nil {
		endpoint += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}
	var delta EventDelta
	if err := c.getJSON(ctx, "events", endpoint, &delta); err != nil {
		return EventDelta{}, err
	}
	return delta, nil
}

// FetchTicketTypes returns the complete current ticket-type set of one event.
func (c *Client) FetchTicketTypes(ctx context.Context, eventID string) ([]TicketType, error) {
	var items []TicketType
	endpoint := fmt.Sprintf("%s/events/%s/ticket-types", c.baseURL, url.PathEscape(eventID))
	if err := c.getJSON(ctx, "ticket-types", endpoint, &items); err != nil {
		return nil, err
	}
	for i := range items {
		normalizeTicketType(&items[i])
	}
	return items, nil
}

// FetchSlots returns the complete current slot inventory of one event.
func (c *Client) FetchSlots(ctx context.Context, eventID string) ([]Slot, error) {
	var items []Slot
	endpoint := fmt.Sprintf("%s/events/%s/slots", c.baseURL, url.PathEscape(eventID))
	if err := c.getJSON(ctx, "slots", endpoint, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchPrograms returns the complete current sub-program list of one event.
func (c *Client) FetchPrograms(ctx context.Context, eventID string) ([]Program, error) {
	var items []Program
	endpoint := fmt.Sprintf("%s/events/%s/programs", c.baseURL, url.PathEscape(eventID))
	if err := c.getJSON(ctx, "programs", endpoint, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// normalizeTicketType fills the typed MembersOnly flag. When the server sent
// members_only it wins. Otherwise the fallback applies: a ticket with a
// member price and no public price is member-exclusive. Callers read the
// flag and never re-derive exclusivity from the price fields.
func normalizeTicketType(t *TicketType) {
	if t.RawMembersOnly != nil {
		t.MembersOnly = *t.RawMembersOnly
		return
	}
	t.MembersOnly = t.MemberPriceCents != nil && t.PriceCents == 0
}

// getJSON performs one GET and decodes the 200 response into out, mapping
// every failure onto the package error taxonomy.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so keep-alive connections can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return &Error{Kind: KindProtocol, Op: op, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Timeout: isTimeout(err), Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		// Log an excerpt so a server/client schema drift can be diagnosed
		// from the service log alone.
		log.Printf("catalog: %s response did not decode (%v); excerpt: %s", op, err, excerpt(body))
		return &Error{Kind: KindDecoding, Op: op, Err: err}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func excerpt(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
