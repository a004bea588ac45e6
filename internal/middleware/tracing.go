package middleware

import (
	"errors"
	"strconv"
	"strings"

	"quill/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// untracedPrefixes are health-check, scrape and docs paths.
var untracedPrefixes = []string{"/health/", "/metrics", "/api/swagger/"}

// TracingMiddleware starts a server span per API request. Once the route has
// run, the span is renamed to the route pattern ("PUT /api/posts/:id/like")
// and tagged with the Quill entities it touched.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, prefix := range untracedPrefixes {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}

		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("client.address", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			span.SetName(c.Method() + " " + route.Path)
			span.SetAttributes(attribute.String("http.route", route.Path))
		}
		span.SetAttributes(routeEntities(c)...)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			span.SetAttributes(attribute.String("quill.request.id", rid))
		}

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "server error")
		}
		return err
	}
}

// routeEntities reads the post and user identifiers from route params and
// the authenticated caller.
func routeEntities(c *fiber.Ctx) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, param := range []string{"id", "postId"} {
		if id, err := strconv.ParseUint(c.Params(param), 10, 64); err == nil {
			attrs = append(attrs, observability.PostID(uint(id)))
			break
		}
	}
	if slug := c.Params("slug"); slug != "" {
		attrs = append(attrs, observability.AttrPostSlug.String(slug))
	}
	if id, err := strconv.ParseUint(c.Params("userId"), 10, 64); err == nil {
		attrs = append(attrs, attribute.Int64("quill.profile.user_id", int64(id)))
	}
	if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
		attrs = append(attrs, observability.UserID(uid))
	}
	return attrs
}
