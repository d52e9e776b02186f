package ingest_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/jdiitm/event-ingest/internal/ingest"
)

func TestEventUnmarshalKeepsNumbers(t *testing.T) {
	var e ingest.Event
	if err := json.Unmarshal([]byte(`{"big":9007199254740993,"f":1.50}`), &e); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n, ok := e["big"].(json.Number); !ok || n.String() != "9007199254740993" {
		t.Errorf("big = %#v, want json.Number 9007199254740993", e["big"])
	}

	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"big":9007199254740993,"f":1.50}` {
		t.Errorf("re-encoded = %s", out)
	}
}

func TestEventUnmarshalRejectsNonObject(t *testing.T) {
	var e ingest.Event
	if err := json.Unmarshal([]byte(`[1,2]`), &e); err == nil {
		t.Fatal("expected error for array payload")
	}
}

func TestResponseJSONShape(t *testing.T) {
	out, err := json.Marshal(ingest.Response{StatusCode: 200, Body: `{"k":"v"}`})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"statusCode":200,"body":"{\"k\":\"v\"}"}` {
		t.Errorf("Response JSON = %s", out)
	}
}

func TestObjectKey(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123456789, time.UTC)
	if got := ingest.ObjectKey(ts); got != "event-2024-03-09T14:05:07.123456.json" {
		t.Errorf("ObjectKey() = %q", got)
	}
}

func TestObjectKeyZeroFraction(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ingest.ObjectKey(ts); got != "event-2024-01-01T00:00:00.000000.json" {
		t.Errorf("ObjectKey() = %q", got)
	}
}

func TestObjectKeyConvertsToUTC(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	ts := time.Date(2024, 1, 1, 5, 0, 0, 0, zone)
	if got := ingest.ObjectKey(ts); got != "event-2024-01-01T00:00:00.000000.json" {
		t.Errorf("ObjectKey() = %q, want UTC time", got)
	}
}

func TestRequestID(t *testing.T) {
	if got := ingest.RequestID(context.Background()); got != "" {
		t.Errorf("RequestID() = %q, want empty", got)
	}

	lambdaCtx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{
		AwsRequestID: "aws-req-1",
	})
	if got := ingest.RequestID(lambdaCtx); got != "aws-req-1" {
		t.Errorf("RequestID() = %q, want aws-req-1", got)
	}

	explicit := ingest.WithRequestID(lambdaCtx, "events/0/17")
	if got := ingest.RequestID(explicit); got != "events/0/17" {
		t.Errorf("RequestID() = %q, want events/0/17", got)
	}
}
