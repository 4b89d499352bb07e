package backend

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/soaringjerry/Echoform/internal/services"
)

// envelope is the modern response wrapper. Legacy endpoints return the
// payload bare.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// unwrap returns the payload of body, or an invalid error for success:false.
func unwrap(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return body, nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Success == nil {
		return body, nil
	}
	if !*env.Success {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = "request rejected by backend"
		}
		return nil, services.NewInvalidError(msg)
	}
	return env.Data, nil
}

func decodeEnvelope(body []byte, out any) error {
	data, err := unwrap(body)
	if err != nil {
		return err
	}
	if out == nil || isNull(data) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return services.NewBadGatewayError("malformed backend response")
	}
	return nil
}

// listPayload accepts a bare array or an object carrying the array under
// one of keys.
func listPayload(raw json.RawMessage, keys ...string) ([]json.RawMessage, error) {
	if isNull(raw) {
		return []json.RawMessage{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, services.NewBadGatewayError("malformed backend list")
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return listPayload(v)
		}
	}
	return nil, services.NewBadGatewayError("malformed backend list")
}

// objectPayload unwraps {"<key>": {...}} when present.
func objectPayload(raw json.RawMessage, key string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	if v, ok := obj[key]; ok && !isNull(v) && bytes.HasPrefix(bytes.TrimSpace(v), []byte("{")) {
		return v
	}
	return raw
}

// serverMessage extracts a human message from an error body.
func serverMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &m); err != nil {
		s := strings.TrimSpace(string(body))
		if len(s) > 200 || strings.HasPrefix(s, "<") {
			return ""
		}
		return s
	}
	if s := strings.TrimSpace(m.Message); s != "" {
		return s
	}
	if s, ok := m.Error.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
