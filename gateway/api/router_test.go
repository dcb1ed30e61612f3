// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.acqgw.io/gateway/api/middleware"
	"go.acqgw.io/gateway/api/model"
	"go.acqgw.io/gateway/api/rendering"
	"go.acqgw.io/gateway/consumer"
	"go.acqgw.io/gateway/input"
	"go.acqgw.io/gateway/sink"
	"go.acqgw.io/gateway/workqueue"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	queue  *workqueue.WorkQueue
	loop   *consumer.Loop
	output *lockedBuffer
	router http.Handler
}

func newFixture(t *testing.T, runConsumer bool) *fixture {
	f := &fixture{queue: workqueue.New(), output: &lockedBuffer{}}
	f.loop = consumer.NewLoop(f.queue, sink.NewConsoleSink(f.output, nil, ""))
	f.router = NewRouter(&Config{
		GatewayID:    "gw-test",
		Queue:        f.queue,
		Consumer:     f.loop,
		Sentinel:     "exit",
		DrainTimeout: 50 * time.Millisecond,
	})

	if runConsumer {
		ctx, cancel := context.WithCancel(context.Background())
		go f.loop.Run(ctx)
		t.Cleanup(cancel)
	}
	return f
}

// Make a test request
func makeTestRequest(t *testing.T, router http.Handler, request *http.Request) *httptest.ResponseRecorder {
	responseRecorder := httptest.NewRecorder()
	router.ServeHTTP(responseRecorder, request)
	t.Logf("test(%v) = %v", request.URL, responseRecorder.Code)
	return responseRecorder
}

// Verify response error type
func assertResponseErrorType(t *testing.T, expectedErrorType string, response *httptest.ResponseRecorder) {
	errResp := model.ErrorResponse{}
	err := json.Unmarshal(response.Body.Bytes(), &errResp)
	assert.Nil(t, err)
	assert.Equal(t, expectedErrorType, errResp.ErrorType)
}

func TestPing(t *testing.T) {
	f := newFixture(t, false)
	rec := makeTestRequest(t, f.router, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestPostJSONItemsThenDrain(t *testing.T) {
	f := newFixture(t, true)

	req := httptest.NewRequest("POST", "/v1/items", strings.NewReader(`{"items":["alpha","beta","exit","gamma"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := makeTestRequest(t, f.router, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	resp := model.ItemsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.ItemsResponse{Accepted: 3, Skipped: 1}, resp)

	rec = makeTestRequest(t, f.router, httptest.NewRequest("POST", "/v1/drain", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"drained"}`, rec.Body.String())
	assert.Equal(t, "alpha\nbeta\ngamma\n", f.output.String())
}

func TestPostPlainTextItems(t *testing.T) {
	f := newFixture(t, false)

	rec := makeTestRequest(t, f.router, httptest.NewRequest("POST", "/v1/items", strings.NewReader("one two\nthree")))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 3, f.queue.Len())
}

func TestPostPlainTextOversizedWord(t *testing.T) {
	f := newFixture(t, false)

	word := strings.Repeat("w", 100<<10)
	rec := makeTestRequest(t, f.router, httptest.NewRequest("POST", "/v1/items", strings.NewReader(word+" tail")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	resp := model.ItemsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, len(word)/input.MaxTokenLength+1, resp.Accepted)
	assert.Equal(t, resp.Accepted, f.queue.Len())
}

func TestPostMalformedJSON(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest("POST", "/v1/items", strings.NewReader(`{"items":`))
	req.Header.Set("Content-Type", "application/json")
	rec := makeTestRequest(t, f.router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertResponseErrorType(t, rendering.ErrorTypeInvalidRequest, rec)
}

func TestPostTooLarge(t *testing.T) {
	f := newFixture(t, false)

	body := strings.Repeat("a ", rendering.MaxPayloadSize)
	rec := makeTestRequest(t, f.router, httptest.NewRequest("POST", "/v1/items", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assertResponseErrorType(t, rendering.ErrorTypeRequestEntityTooLarge, rec)
}

func TestPostAfterStop(t *testing.T) {
	f := newFixture(t, false)
	f.queue.Stop(nil)

	rec := makeTestRequest(t, f.router, httptest.NewRequest("POST", "/v1/items", strings.NewReader("alpha")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assertResponseErrorType(t, rendering.ErrorTypeQueueStopped, rec)
}

func TestDrainTimeout(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.queue.Enqueue("never consumed"))

	rec := makeTestRequest(t, f.router, httptest.NewRequest("POST", "/v1/drain", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assertResponseErrorType(t, rendering.ErrorTypeDrainTimeout, rec)
}

func TestDrainEmptyQueue(t *testing.T) {
	f := newFixture(t, false)

	rec := makeTestRequest(t, f.router, httptest.NewRequest("POST", "/v1/drain", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.queue.Enqueue("alpha"))
	require.NoError(t, f.queue.Enqueue("beta"))

	rec := makeTestRequest(t, f.router, httptest.NewRequest("GET", "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	status := model.GatewayStatusResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

	since, err := time.Parse(time.RFC3339Nano, status.ConsumerStateSince)
	require.NoError(t, err)
	assert.True(t, since.Equal(f.loop.StateLastModified()), "consumer state timestamp %s", since)
	status.ConsumerStateSince = ""

	assert.Equal(t, model.GatewayStatusResponse{
		GatewayID:     "gw-test",
		Depth:         2,
		Enqueued:      2,
		ConsumerState: consumer.IdleStateName,
	}, status)
}

// TestAcceptXML confirms responses are always rendered as JSON,
// regardless of the value provided in "Accept" header.
func TestAcceptXML(t *testing.T) {
	f := newFixture(t, false)
	req := httptest.NewRequest("GET", "/v1/status", nil)
	req.Header.Add("Accept", "application/xml")

	rec := makeTestRequest(t, f.router, req)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestServerListenServe(t *testing.T) {
	f := newFixture(t, true)
	s := NewServer("127.0.0.1:0", &Config{Queue: f.queue, Consumer: f.loop})
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	resp, err := http.Get(s.URL("/ping"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
