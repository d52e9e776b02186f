package ingest

import (
	"bytes"
	"encoding/json"
)

// Event is the caller-defined payload of one invocation. No schema is applied.
type Event map[string]any

// UnmarshalJSON keeps numbers as json.Number so that re-encoding the event
// reproduces the original digits instead of a float64 approximation.
func (e *Event) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*e = m
	return nil
}

// Response mirrors the record returned to the invoker. Body is JSON text.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type storedBody struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

type errorBody struct {
	Error string `json:"error"`
}

const storedMessage = "Event stored"

func storedResponse(key string) Response {
	return Response{StatusCode: 200, Body: encodeBody(storedBody{Message: storedMessage, Key: key})}
}

func errorResponse(msg string) Response {
	return Response{StatusCode: 500, Body: encodeBody(errorBody{Error: msg})}
}

// marshalCompact encodes v with no whitespace between tokens, the same
// separators json.Marshal uses, but leaves <, > and & unescaped so stored
// events keep the caller's text as sent.
func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func encodeBody(v any) string {
	data, err := marshalCompact(v)
	if err != nil {
		// Only string fields are encoded, so this is unreachable.
		return `{"error":"encode response"}`
	}
	return string(data)
}
