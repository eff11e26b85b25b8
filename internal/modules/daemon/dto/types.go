package dto

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is the request envelope shared by every transport.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage builds an envelope, encoding payload when non-nil.
func NewMessage(kind string, payload any) (Message, error) {
	msg := Message{Type: kind}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	msg.Payload = raw
	return msg, nil
}

// Response is a flat JSON object: ok, optional error and warning, plus
// kind-specific fields.
type Response struct {
	OK      bool
	Error   string
	Warning string
	Fields  map[string]any
}

func OK(fields map[string]any) Response {
	return Response{OK: true, Fields: fields}
}

func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["ok"] = r.OK
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.Warning != "" {
		out["warning"] = r.Warning
	}
	return json.Marshal(out)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Response{Fields: map[string]any{}}
	for k, v := range raw {
		var err error
		switch k {
		case "ok":
			err = json.Unmarshal(v, &r.OK)
		case "error":
			err = json.Unmarshal(v, &r.Error)
		case "warning":
			err = json.Unmarshal(v, &r.Warning)
		default:
			r.Fields[k] = v
		}
		if err != nil {
			return fmt.Errorf("decode response field %s: %w", k, err)
		}
	}
	return nil
}

// Field decodes a kind-specific field into out. It reports false when the
// field is absent.
func (r Response) Field(key string, out any) (bool, error) {
	v, ok := r.Fields[key]
	if !ok {
		return false, nil
	}
	raw, isRaw := v.(json.RawMessage)
	if !isRaw {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return true, err
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decode response field %s: %w", key, err)
	}
	return true, nil
}

type Status struct {
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"startedAt"`
	Uptime     string    `json:"uptime"`
	Embedder   string    `json:"embedder"`
	Stage      string    `json:"stage"`
	SocketPath string    `json:"socketPath"`
	HTTPAddr   string    `json:"httpAddr,omitempty"`
}

type RuntimeStatus struct {
	Running    bool
	PID        int
	SocketPath string
	LogPath    string
	Status     *Status
}
