package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/interview-prep/internal/retry"
)

// ToolParam is a string argument accepted by a tool.
type ToolParam struct {
	Name        string
	Description string
	Required    bool
}

// ToolSpec declares a tool the model may call.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ToolCall is a model request to run a tool.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Arg returns a string argument of the call, or "".
func (c ToolCall) Arg(name string) string {
	if v, ok := c.Args[name].(string); ok {
		return v
	}
	if v, ok := c.Args[name]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// ToolResult is the output of a tool call sent back to the model.
type ToolResult struct {
	Name   string
	Output string
}

// Input is one user turn: text, tool results, or both.
type Input struct {
	Text    string
	Results []ToolResult
}

// Reply is one model turn. Content is either a string or a list of text parts;
// NormalizeContent turns it into one string.
type Reply struct {
	Content any
	Calls   []ToolCall
}

// Chat is a multi-turn conversation with a model.
type Chat interface {
	Send(ctx context.Context, in Input) (*Reply, error)
}

// ChatModel starts conversations with a system prompt and an optional tool set.
type ChatModel interface {
	StartChat(system string, tools []ToolSpec, tier ModelTier) Chat
}

// NormalizeContent flattens model content into a single string. Lists of parts are
// joined with newlines; parts shaped like {"text": "..."} contribute their text.
func NormalizeContent(content any) string {
	switch c := content.(type) {
	case nil:
		return ""
	case string:
		return c
	case []string:
		return strings.Join(c, "\n")
	case []any:
		chunks := make([]string, 0, len(c))
		for _, part := range c {
			switch p := part.(type) {
			case string:
				chunks = append(chunks, p)
			case map[string]any:
				if text, ok := p["text"].(string); ok {
					chunks = append(chunks, text)
				} else {
					chunks = append(chunks, fmt.Sprint(p))
				}
			default:
				chunks = append(chunks, fmt.Sprint(p))
			}
		}
		return strings.Join(chunks, "\n")
	}
	return fmt.Sprint(content)
}

// RetryingChat retries failed sends of an underlying Chat under a retry policy.
type RetryingChat struct {
	Chat   Chat
	Policy retry.Policy
}

// Send implements Chat.
func (r *RetryingChat) Send(ctx context.Context, in Input) (*Reply, error) {
	return retry.Do(ctx, r.Policy, func(ctx context.Context) (*Reply, error) {
		return r.Chat.Send(ctx, in)
	})
}
