package providers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// replyEnvelope covers both known success shapes. Output stays raw so a
// non-string value is rejected instead of coerced.
type replyEnvelope struct {
	Output  json.RawMessage `json:"output"`
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseReply decodes a 2xx LLM body into a Reply. A non-empty flat output
// wins when both shapes are present; an empty one counts as absent.
func ParseReply(body []byte) (Reply, error) {
	var env replyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrInvalidResponseFormat, err)
	}

	var output string
	if len(env.Output) > 0 && env.Output[0] == '"' {
		if err := json.Unmarshal(env.Output, &output); err != nil {
			return Reply{}, fmt.Errorf("%w: %v", ErrInvalidResponseFormat, err)
		}
	}

	var r Reply
	switch {
	case output != "":
		r = Reply{Shape: ShapeResponses, Text: output}
	case len(env.Choices) > 0 && env.Choices[0].Message.Content != nil:
		r = Reply{Shape: ShapeChatCompletion, Text: *env.Choices[0].Message.Content}
	default:
		return Reply{}, ErrInvalidResponseFormat
	}

	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return Reply{}, fmt.Errorf("%w: empty %s text", ErrInvalidResponseFormat, r.Shape)
	}
	return r, nil
}
