package runtime

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/botwire/botwire/internal/runtime/jsoncodec"
	"github.com/botwire/botwire/segment"
)

// BaseEvent is the envelope wrapped around every event the implementation
// side emits. Content is fully generic so the standard event set and
// platform-specific extensions share one envelope.
//
// On the wire the envelope is flattened: when Content marshals to a JSON
// object its fields appear next to the envelope fields, mirroring the OneBot
// event layout. Non-object content is carried under a "content" key.
type BaseEvent[E any] struct {
	ID       string
	Impl     string
	Platform string
	SelfID   string
	// Time is seconds since the Unix epoch. Monotonic ordering across
	// concurrent emitters is best effort only.
	Time    float64
	Content E
}

func (e BaseEvent[E]) MarshalJSON() ([]byte, error) {
	body := map[string]any{}

	raw, err := jsoncodec.Marshal(e.Content)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		if err := jsoncodec.Unmarshal(trimmed, &body); err != nil {
			return nil, err
		}
	case bytes.Equal(trimmed, []byte("null")):
		// nothing to flatten
	default:
		body["content"] = json.RawMessage(trimmed)
	}

	body["id"] = e.ID
	body["impl"] = e.Impl
	body["platform"] = e.Platform
	body["self_id"] = e.SelfID
	body["time"] = e.Time
	return jsoncodec.Marshal(body)
}

func (e *BaseEvent[E]) UnmarshalJSON(data []byte) error {
	var envelope struct {
		ID       string  `json:"id"`
		Impl     string  `json:"impl"`
		Platform string  `json:"platform"`
		SelfID   string  `json:"self_id"`
		Time     float64 `json:"time"`
	}
	if err := jsoncodec.Unmarshal(data, &envelope); err != nil {
		return err
	}

	var probe struct {
		Content json.RawMessage `json:"content"`
	}
	_ = jsoncodec.Unmarshal(data, &probe)

	var content E
	if len(probe.Content) > 0 {
		if err := jsoncodec.Unmarshal(probe.Content, &content); err != nil {
			return err
		}
	} else if err := jsoncodec.Unmarshal(data, &content); err != nil {
		return err
	}

	e.ID = envelope.ID
	e.Impl = envelope.Impl
	e.Platform = envelope.Platform
	e.SelfID = envelope.SelfID
	e.Time = envelope.Time
	e.Content = content
	return nil
}

// Action is the thin envelope peers send to request an operation. Params
// stays generic; the standard action set and extensions both fit.
type Action[P any] struct {
	Action string `json:"action"`
	Params P      `json:"params"`
	// Echo correlates the eventual response on duplex transports.
	Echo string `json:"echo,omitempty"`
}

// Resp is the response envelope correlated to one action.
type Resp[R any] struct {
	// Status is "ok" or "failed".
	Status  string `json:"status"`
	RetCode int64  `json:"retcode"`
	Data    R      `json:"data"`
	Message string `json:"message"`
	Echo    string `json:"echo,omitempty"`
}

// Standard retcodes for failed responses.
const (
	RetCodeOK                int64 = 0
	RetCodeBadRequest        int64 = 10001
	RetCodeUnsupportedAction int64 = 10002
	RetCodeBadParam          int64 = 10003
	RetCodeUnsupportedParam  int64 = 10004
	RetCodeInternalHandler   int64 = 20002
)

// RespOK wraps data in a successful response.
func RespOK[R any](data R) Resp[R] {
	return Resp[R]{Status: "ok", RetCode: RetCodeOK, Data: data}
}

// RespFailed builds a failed response with the given retcode and message.
func RespFailed[R any](retcode int64, message string) Resp[R] {
	return Resp[R]{Status: "failed", RetCode: retcode, Message: message}
}

func RespBadRequest[R any](message string) Resp[R] {
	return RespFailed[R](RetCodeBadRequest, message)
}

func RespUnsupportedAction[R any]() Resp[R] {
	return RespFailed[R](RetCodeUnsupportedAction, "unsupported action")
}

func RespBadParam[R any](message string) Resp[R] {
	return RespFailed[R](RetCodeBadParam, message)
}

func RespInternalHandler[R any](message string) Resp[R] {
	return RespFailed[R](RetCodeInternalHandler, message)
}

// StatusContent reports runtime liveness: good mirrors the running flag,
// online mirrors transport-level connectivity.
type StatusContent struct {
	Good   bool `json:"good"`
	Online bool `json:"online"`
}

// HeartbeatContent is the payload of the periodic heartbeat meta event.
type HeartbeatContent struct {
	Type       string        `json:"type"`
	DetailType string        `json:"detail_type"`
	SubType    string        `json:"sub_type"`
	Interval   int64         `json:"interval"`
	Status     StatusContent `json:"status"`
}

// MessageContent is the payload of a standard message event.
type MessageContent struct {
	Type       string          `json:"type"`
	DetailType string          `json:"detail_type"`
	SubType    string          `json:"sub_type"`
	MessageID  string          `json:"message_id"`
	Message    segment.Message `json:"message"`
	AltMessage string          `json:"alt_message"`
	UserID     string          `json:"user_id"`
	GroupID    string          `json:"group_id,omitempty"`
}

func timestamp() float64 {
	return float64(time.Now().UnixMilli()) / 1000
}
