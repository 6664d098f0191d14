package tracer_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/tracer"
	"github.com/uber/jaeger-client-go"
)

func newTracer(t *testing.T) (*tracer.Tracer, io.Closer) {
	t.Helper()
	tr, closer, err := tracer.NewTracer(&tracer.Options{
		Enabled:     true,
		ServiceName: "test",
	})
	if err != nil {
		t.Fatal(err)
	}
	return tr, closer
}

func TestSpanFromHTTPHeaders(t *testing.T) {
	tr, closer := newTracer(t)
	defer closer.Close()

	span, _, ctx := tr.StartSpanFromContext(context.Background(), "some-operation", nil)
	defer span.Finish()

	headers := make(http.Header)
	if err := tr.AddContextHTTPHeader(ctx, headers); err != nil {
		t.Fatal(err)
	}

	gotSpanContext, err := tr.FromHTTPHeaders(headers)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(gotSpanContext) == "" {
		t.Fatal("got empty span context")
	}

	wantSpanContext := span.Context()
	if fmt.Sprint(gotSpanContext) != fmt.Sprint(wantSpanContext) {
		t.Errorf("got span context %+v, want %+v", gotSpanContext, wantSpanContext)
	}
}

func TestFromHTTPHeadersMissing(t *testing.T) {
	tr, closer := newTracer(t)
	defer closer.Close()

	if _, err := tr.FromHTTPHeaders(make(http.Header)); err != tracer.ErrContextNotFound {
		t.Fatalf("got error %v, want %v", err, tracer.ErrContextNotFound)
	}
}

func TestAddContextHTTPHeaderMissing(t *testing.T) {
	tr, closer := newTracer(t)
	defer closer.Close()

	if err := tr.AddContextHTTPHeader(context.Background(), make(http.Header)); err != tracer.ErrContextNotFound {
		t.Fatalf("got error %v, want %v", err, tracer.ErrContextNotFound)
	}
}

func TestWithContext(t *testing.T) {
	tr, closer := newTracer(t)
	defer closer.Close()

	span, _, _ := tr.StartSpanFromContext(context.Background(), "some-operation", nil)
	defer span.Finish()

	ctx := tracer.WithContext(context.Background(), span.Context())

	gotSpanContext := tracer.FromContext(ctx)
	if fmt.Sprint(gotSpanContext) == "" {
		t.Fatal("got empty span context")
	}
	if fmt.Sprint(gotSpanContext) != fmt.Sprint(span.Context()) {
		t.Errorf("got span context %+v, want %+v", gotSpanContext, span.Context())
	}
}

func TestStartSpanFromContextLogger(t *testing.T) {
	tr, closer := newTracer(t)
	defer closer.Close()

	logger := logging.New(io.Discard, 5)
	span, entry, _ := tr.StartSpanFromContext(context.Background(), "some-operation", logger)
	defer span.Finish()

	if entry == nil {
		t.Fatal("got nil log entry")
	}
	sc, ok := span.Context().(jaeger.SpanContext)
	if !ok {
		t.Fatal("span context is not a jaeger span context")
	}
	got, ok := entry.Data[tracer.LogField]
	if !ok {
		t.Fatal("log entry has no trace id field")
	}
	if fmt.Sprint(got) != sc.TraceID().String() {
		t.Errorf("got trace id %v, want %v", got, sc.TraceID())
	}
}

func TestStartSpanFromContextNilLogger(t *testing.T) {
	tr, closer := newTracer(t)
	defer closer.Close()

	span, entry, _ := tr.StartSpanFromContext(context.Background(), "some-operation", nil)
	defer span.Finish()

	if entry != nil {
		t.Error("log entry is not nil")
	}
}
