package ingest

import "time"

const keyTimeLayout = "2006-01-02T15:04:05.000000"

// ObjectKey names the stored object after the invocation time in UTC with
// microsecond resolution. Two invocations in the same microsecond get the
// same key and the later write replaces the earlier one.
func ObjectKey(t time.Time) string {
	return "event-" + t.UTC().Format(keyTimeLayout) + ".json"
}
