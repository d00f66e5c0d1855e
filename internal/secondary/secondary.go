// Package secondary implements the optional secondary-detector collaborator
// (spec §2, §4.7 step 7): an HTTP classifier queried at most once every
// secondary_interval frames, whose verdict folds into the camera loop's
// motion decision via a single-slot mailbox so the pipeline never blocks
// waiting on the network.
package secondary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"time"

	"motiond/internal/frame"
	"motiond/internal/imaging"
)

// Verdict is the classifier's opinion on one submitted frame.
type Verdict struct {
	Confirmed bool
	Score     float64
}

// Client posts a JPEG-encoded frame to an HTTP classifier endpoint,
// generalized from the teacher's multipart-POST detector client.
type Client struct {
	Endpoint string
	HTTP     *http.Client
}

// NewClient returns a Client with a sane request timeout, matching the
// teacher's detector clients which always set one explicitly.
func NewClient(endpoint string) *Client {
	return &Client{Endpoint: endpoint, HTTP: &http.Client{Timeout: 5 * time.Second}}
}

// Classify encodes f as JPEG, posts it as multipart/form-data field
// "image", and decodes a {"confirmed":bool,"score":float64} JSON response.
func (c *Client) Classify(ctx context.Context, f *frame.Frame) (Verdict, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return Verdict{}, fmt.Errorf("secondary: create form file: %w", err)
	}
	if err := jpeg.Encode(part, imaging.ToYCbCr(f), &jpeg.Options{Quality: 85}); err != nil {
		return Verdict{}, fmt.Errorf("secondary: encode jpeg: %w", err)
	}
	if err := w.Close(); err != nil {
		return Verdict{}, fmt.Errorf("secondary: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, &body)
	if err != nil {
		return Verdict{}, fmt.Errorf("secondary: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("secondary: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("secondary: unexpected status %d", resp.StatusCode)
	}

	var out Verdict
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Verdict{}, fmt.Errorf("secondary: decode response: %w", err)
	}
	return out, nil
}

// Mailbox is a single-slot, non-blocking-read channel the pipeline drains
// once per tick, so a slow classifier never stalls frame processing.
type Mailbox struct {
	ch chan Verdict
}

// NewMailbox returns an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan Verdict, 1)}
}

// Post replaces any pending, undrained verdict with v.
func (m *Mailbox) Post(v Verdict) {
	select {
	case <-m.ch:
	default:
	}
	m.ch <- v
}

// TryDrain returns the pending verdict and true, or the zero Verdict and
// false if nothing is pending.
func (m *Mailbox) TryDrain() (Verdict, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		return Verdict{}, false
	}
}

// Runner polls a Client at most once every Interval frames, posting every
// result to Mailbox, on its own goroutine.
type Runner struct {
	Client   *Client
	Mailbox  *Mailbox
	Interval int

	frameCount int
}

// Offer submits f for classification if Interval frames have elapsed since
// the last submission, spawning one goroutine per submission so the
// pipeline's own tick never blocks on the network round trip.
func (r *Runner) Offer(ctx context.Context, f *frame.Frame) {
	r.frameCount++
	if r.Interval <= 0 || r.frameCount%r.Interval != 0 {
		return
	}
	clone := f.Clone()
	go func() {
		v, err := r.Client.Classify(ctx, clone)
		if err != nil {
			return
		}
		r.Mailbox.Post(v)
	}()
}
