package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("quill-test")
	t.Cleanup(func() {
		observability.Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func newTracedApp() *fiber.App {
	app := fiber.New()
	app.Use(TracingMiddleware())
	asUser := func(c *fiber.Ctx) error {
		c.Locals("userID", uint(3))
		return c.Next()
	}
	app.Put("/api/posts/:id/like", asUser, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/api/posts/slug/:slug", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/api/comments/:postId", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "boom")
	})
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app
}

func TestTracingMiddleware_NamesSpanByRouteWithEntities(t *testing.T) {
	recorder := recordSpans(t)
	app := newTracedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/api/posts/7/like", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "PUT /api/posts/:id/like", spans[0].Name())

	attrs := spanAttrs(spans[0])
	assert.Equal(t, int64(7), attrs[observability.AttrPostID].AsInt64())
	assert.Equal(t, int64(3), attrs[observability.AttrUserID].AsInt64())
	assert.Equal(t, "/api/posts/:id/like", attrs["http.route"].AsString())
	assert.Equal(t, int64(http.StatusOK), attrs["http.response.status_code"].AsInt64())
}

func TestTracingMiddleware_SlugAndServerErrors(t *testing.T) {
	recorder := recordSpans(t)
	app := newTracedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/slug/trip", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/comments/9", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	slugAttrs := spanAttrs(spans[0])
	assert.Equal(t, "trip", slugAttrs[observability.AttrPostSlug].AsString())
	_, hasUser := slugAttrs[observability.AttrUserID]
	assert.False(t, hasUser, "anonymous requests carry no user")

	assert.Equal(t, "GET /api/comments/:postId", spans[1].Name())
	assert.Equal(t, int64(9), spanAttrs(spans[1])[observability.AttrPostID].AsInt64())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTracingMiddleware_SkipsHealthAndScrapePaths(t *testing.T) {
	recorder := recordSpans(t)
	app := newTracedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, recorder.Ended())
}
