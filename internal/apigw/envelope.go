package apigw

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/fjod/shopflow/internal/domain"
)

// envelope is the {code, message|msg|detail, data} wrapper every endpoint
// answers with.
type envelope struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Detail  json.RawMessage `json:"detail"`
	Data    json.RawMessage `json:"data"`
}

func unwrapEnvelope(status int, raw []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &domain.Error{Kind: domain.ErrRequest, Status: status, Message: "unexpected response from server", Cause: err}
	}

	code := envelopeCode(env.Code)
	if code == "0" {
		if msg, ok := legacyError(env.Data); ok {
			return nil, &domain.Error{Kind: domain.ErrRequest, Status: status, Code: code, Message: msg}
		}
		return env.Data, nil
	}
	return nil, &domain.Error{
		Kind:    domain.ErrRequest,
		Status:  status,
		Code:    code,
		Message: firstNonEmpty(env.Message, env.Msg, detailText(env.Detail), defaultMessage),
	}
}

// legacyError recognizes the server's old failure shape: code "0" with
// data {"error": "..."} and nothing else.
func legacyError(data json.RawMessage) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || len(obj) != 1 {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(obj["error"], &msg); err != nil || msg == "" {
		return "", false
	}
	return msg, true
}

// envelopeCode normalizes a numeric or string code to its text form.
func envelopeCode(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := n.Float64(); err == nil && f == 0 {
			return "0"
		}
		return n.String()
	}
	return string(raw)
}

// statusMessage extracts the best message from a non-2xx body.
func statusMessage(raw []byte, fallback string) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fallback
	}
	return firstNonEmpty(detailText(env.Detail), env.Message, env.Msg, fallback)
}

// detailText accepts a plain string or a validation list of {msg} objects.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0].Msg
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
