package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Envelope is the uniform wrapper every remote endpoint returns.
type Envelope struct {
	ResponseCode string          `json:"response_code"`
	Message      string          `json:"message"`
	Content      json.RawMessage `json:"content,omitempty"`
	Errors       ErrorList       `json:"errors,omitempty"`
}

// ErrorList accepts both ["message"] and [{"code": "...", "message": "..."}].
type ErrorList []string

func (l *ErrorList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(ErrorList, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		if obj.Message != "" {
			out = append(out, obj.Message)
		} else {
			out = append(out, obj.Code)
		}
	}
	*l = out
	return nil
}

// IsSuccess applies the response_code success rule. With an empty pinned
// literal any code containing "200" is a success; otherwise the code must
// equal the pinned literal.
func IsSuccess(code, pinned string) bool {
	if pinned != "" {
		return code == pinned
	}
	return strings.Contains(code, "200")
}
