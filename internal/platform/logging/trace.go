package logging

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context format: {version}-{trace-id}-{parent-id}-{trace-flags}
// Example: 00-ab42124a3c573678d4d8b21ba52df3bf-d21f7bc17caa5aba-01
var traceparentRe = regexp.MustCompile(`^([0-9a-f]{2})-([0-9a-f]{32})-([0-9a-f]{16})-([0-9a-f]{2})$`)

// projectID resolves the Google Cloud project once per process. Replaced in tests.
var projectID = sync.OnceValue(func() string {
	for _, key := range []string{"GOOGLE_CLOUD_PROJECT", "GCP_PROJECT", "GCLOUD_PROJECT", "PROJECT_ID"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
})

type traceContext struct {
	traceID string
	spanID  string
	sampled bool
}

// traceFromRequest prefers the span started by the tracing middleware and
// falls back to the inbound traceparent header.
func traceFromRequest(r *http.Request) (traceContext, bool) {
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		return traceContext{
			traceID: sc.TraceID().String(),
			spanID:  sc.SpanID().String(),
			sampled: sc.IsSampled(),
		}, true
	}
	return parseTraceparent(r.Header.Get(traceparentHeader))
}

func parseTraceparent(header string) (traceContext, bool) {
	m := traceparentRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(header)))
	if len(m) != 5 || m[1] == "ff" {
		return traceContext{}, false
	}
	if strings.Trim(m[2], "0") == "" || strings.Trim(m[3], "0") == "" {
		return traceContext{}, false
	}
	return traceContext{traceID: m[2], spanID: m[3], sampled: m[4] == "01"}, true
}

// resource returns the Cloud Trace resource name, or the bare trace ID when
// no project is known.
func (tc traceContext) resource(project string) string {
	if project == "" {
		return tc.traceID
	}
	return fmt.Sprintf("projects/%s/traces/%s", project, tc.traceID)
}

func (tc traceContext) fields(project string) []zap.Field {
	if project == "" {
		return []zap.Field{
			zap.String("traceId", tc.traceID),
			zap.String("spanId", tc.spanID),
		}
	}
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", tc.resource(project)),
		zap.String("logging.googleapis.com/spanId", tc.spanID),
		zap.Bool("logging.googleapis.com/trace_sampled", tc.sampled),
	}
}
