// Package providertest provides a scripted Provider for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/fitminute/photoedit/internal/providers"
)

// Fake returns a fixed response or error and counts calls. If Release is
// non-nil, EditImage blocks until it is closed, which lets tests observe a
// session while its call is in flight.
type Fake struct {
	Response *providers.Response
	Err      error
	Release  chan struct{}
	// Started, if non-nil, receives one value per call before blocking.
	Started chan struct{}

	mu       sync.Mutex
	calls    int
	requests []providers.Request
}

// EditImage implements providers.Provider.
func (f *Fake) EditImage(ctx context.Context, req providers.Request) (*providers.Response, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Started != nil {
		f.Started <- struct{}{}
	}
	if f.Release != nil {
		<-f.Release
	}
	return f.Response, f.Err
}

// Calls returns the number of EditImage calls so far.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastRequest returns the most recent request.
func (f *Fake) LastRequest() providers.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return providers.Request{}
	}
	return f.requests[len(f.requests)-1]
}

// ImageResponse builds a one-candidate response whose parts are images with
// the given bytes, in order.
func ImageResponse(mimeType string, images ...[]byte) *providers.Response {
	var parts []providers.Part
	for _, data := range images {
		parts = append(parts, providers.Part{InlineData: &providers.Blob{MIMEType: mimeType, Data: data}})
	}
	return &providers.Response{Candidates: []providers.Candidate{{Parts: parts}}}
}

// TextResponse builds a one-candidate response with a single text part.
func TextResponse(text string) *providers.Response {
	return &providers.Response{Candidates: []providers.Candidate{{Parts: []providers.Part{{Text: text}}}}}
}
