package notifier

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// maxAttempts bounds one Notify call; a webhook that keeps failing is
// given up on, never looped forever.
const maxAttempts = 5

// Dispatcher sends one webhook message per new item and owns the
// per-destination rate-limit state. Notify never returns an error:
// failures degrade to false with the cause logged. Callers serialize
// sends to the same destination.
type Dispatcher struct {
	client *http.Client

	mu      sync.Mutex
	resetAt map[string]time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New builds a dispatcher with a sane request timeout.
func New() *Dispatcher {
	return &Dispatcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		resetAt: make(map[string]time.Time),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Notify posts a message to the destination webhook, honoring any
// rate-limit window previously recorded for it. Returns true when the
// destination accepted the message.
func (d *Dispatcher) Notify(destination string, msg Message) bool {
	d.waitForReset(destination)

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal webhook payload: %v", err)
		return false
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := d.client.Post(destination, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Printf("Webhook request failed: %v", err)
			return false
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			d.clearReset(destination)
			return true

		case resp.StatusCode == http.StatusTooManyRequests:
			wait, ok := retryDirective(resp, body)
			if !ok {
				wait = backoff(attempt, 30*time.Second)
			}
			d.recordReset(destination, wait)
			log.Printf("Webhook rate limited (attempt %d/%d), waiting %v", attempt, maxAttempts, wait)
			if attempt < maxAttempts {
				d.sleep(wait)
				continue
			}
			return false

		case resp.StatusCode >= 500:
			wait := backoff(attempt, 10*time.Second)
			log.Printf("Webhook server error %d (attempt %d/%d), retrying in %v", resp.StatusCode, attempt, maxAttempts, wait)
			if attempt < maxAttempts {
				d.sleep(wait)
				continue
			}
			return false

		default:
			log.Printf("Webhook rejected message with status %d: %s", resp.StatusCode, string(body))
			return false
		}
	}
	return false
}

// waitForReset blocks until a previously recorded rate-limit window
// for the destination has elapsed.
func (d *Dispatcher) waitForReset(destination string) {
	d.mu.Lock()
	reset, ok := d.resetAt[destination]
	d.mu.Unlock()
	if !ok {
		return
	}
	if wait := reset.Sub(d.now()); wait > 0 {
		log.Printf("Destination still rate limited, waiting %v before sending", wait)
		d.sleep(wait)
	}
}

func (d *Dispatcher) recordReset(destination string, wait time.Duration) {
	d.mu.Lock()
	d.resetAt[destination] = d.now().Add(wait)
	d.mu.Unlock()
}

func (d *Dispatcher) clearReset(destination string) {
	d.mu.Lock()
	delete(d.resetAt, destination)
	d.mu.Unlock()
}

// retryDirective extracts the wait the destination asked for from a
// rate-limit response: the Retry-After header or a retry_after body
// field. Values above 1000 are taken as milliseconds, anything else as
// seconds (webhook hosts disagree on the unit).
func retryDirective(resp *http.Response, body []byte) (time.Duration, bool) {
	if h := resp.Header.Get("Retry-After"); h != "" {
		if v, err := strconv.ParseFloat(h, 64); err == nil {
			return directiveDuration(v), true
		}
	}
	var parsed struct {
		RetryAfter *float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.RetryAfter != nil {
		return directiveDuration(*parsed.RetryAfter), true
	}
	return 0, false
}

func directiveDuration(v float64) time.Duration {
	if v > 1000 {
		return time.Duration(v * float64(time.Millisecond))
	}
	return time.Duration(v * float64(time.Second))
}

// backoff returns min(limit, 2^attempt seconds).
func backoff(attempt int, limit time.Duration) time.Duration {
	wait := time.Duration(1<<uint(attempt)) * time.Second
	if wait > limit {
		return limit
	}
	return wait
}
