package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"basketReco/domain"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSink struct {
	events []domain.RecommendationEvent
	err    error
}

func (s *stubSink) SaveEvent(_ context.Context, event domain.RecommendationEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func postJSON(t *testing.T, h echo.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	return rec
}

func TestTrackEvent(t *testing.T) {
	sink := &stubSink{}
	h := NewEventHandler(sink, 0)

	rec := postJSON(t, h.Track, "/api/v1/events",
		`{"shop":"s","productId":"gid://shopify/Product/201","eventType":"click","unitId":"u-1","variantId":"v-b"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "201", ev.ProductID)
	assert.Equal(t, domain.EventClick, ev.EventType)
	assert.Equal(t, "v-b", ev.VariantID)
}

func TestTrackEvent_SinkFailureStillAccepted(t *testing.T) {
	sink := &stubSink{err: errors.New("db down")}
	h := NewEventHandler(sink, 0)

	rec := postJSON(t, h.Track, "/api/v1/events", `{"shop":"s","productId":"7","eventType":"impression"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, sink.events, 1)
}

func TestTrackEvent_Validation(t *testing.T) {
	cases := map[string]string{
		"unknown type":   `{"shop":"s","productId":"7","eventType":"purchase"}`,
		"missing shop":   `{"productId":"7","eventType":"click"}`,
		"bad product id": `{"shop":"s","productId":"abc","eventType":"click"}`,
		"malformed":      `{"shop":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			sink := &stubSink{}
			h := NewEventHandler(sink, 0)

			rec := postJSON(t, h.Track, "/api/v1/events", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, sink.events)
		})
	}
}
