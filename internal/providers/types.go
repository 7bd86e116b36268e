package providers

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// CallSpec is a fully built outbound LLM call. Building one performs no I/O.
type CallSpec struct {
	Model    string
	Endpoint string
	Headers  map[string]string
	Payload  map[string]interface{}
}

// Request body option keys.
const (
	OptMaxTokens       = "max_tokens"
	OptTemperature     = "temperature"
	OptReasoningEffort = "reasoning_effort"
	OptVerbosity       = "verbosity"
)

// Shape identifies which upstream response format a reply was decoded from.
type Shape int

const (
	// ShapeResponses is a flat {"output": "..."} body (Responses API).
	ShapeResponses Shape = iota + 1
	// ShapeChatCompletion is {"choices":[{"message":{"content":"..."}}]}.
	ShapeChatCompletion
)

func (s Shape) String() string {
	switch s {
	case ShapeResponses:
		return "responses"
	case ShapeChatCompletion:
		return "chat_completion"
	default:
		return "unknown"
	}
}

// Reply is the assistant text extracted from a successful LLM call.
type Reply struct {
	Shape Shape
	Text  string
}
