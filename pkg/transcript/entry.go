// Package transcript reads the trailing window of a session's append-only
// JSONL transcript and classifies it into session state: status, current
// task and file, tool history, task counts, and request cadence.
package transcript

import (
	"encoding/json"
	"time"
)

// Entry is one line of a transcript. Fields beyond the ones named here
// are ignored during decode.
type Entry struct {
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	Message   Message `json:"message"`
}

// Time parses the entry timestamp. Transcripts carry ISO-8601 with a Z or
// numeric offset suffix, both covered by RFC 3339.
func (e Entry) Time() (time.Time, bool) {
	if e.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Message carries the entry payload.
type Message struct {
	Content Content `json:"content"`
}

// Content tolerates both shapes message content arrives in: a plain
// string or an array of typed blocks. Any other shape decodes to the zero
// value instead of failing the line.
type Content struct {
	Text   string
	Blocks []Block
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	blocks := make([]Block, 0, len(raw))
	for _, r := range raw {
		var b Block
		if err := json.Unmarshal(r, &b); err != nil {
			continue
		}
		blocks = append(blocks, b)
	}
	c.Blocks = blocks
	return nil
}

// Block is one typed content block. tool_use blocks carry Name, Input and
// ID; tool_result blocks carry ToolUseID and a result payload.
type Block struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text"`
	Name      string                 `json:"name"`
	ID        string                 `json:"id"`
	ToolUseID string                 `json:"tool_use_id"`
	Input     map[string]interface{} `json:"input"`
	Content   ResultText             `json:"content"`
}

// InputString returns a string-typed input parameter, or "" when the key
// is absent or holds another type.
func (b Block) InputString(key string) string {
	v, ok := b.Input[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// ResultText captures tool_result content only when it is a plain string.
// Structured result payloads decode to empty and are not inspected.
type ResultText string

func (r *ResultText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ResultText(s)
	}
	return nil
}
