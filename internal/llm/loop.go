package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// DefaultMaxToolSteps bounds the number of tool rounds in RunToolLoop.
const DefaultMaxToolSteps = 8

// budgetExhausted is sent with the last batch of tool results once the step bound is hit.
const budgetExhausted = "Tool budget exhausted. Do not call any more tools. Return the final answer now."

// Tool pairs a declaration with its implementation. Call returns the text handed back
// to the model; failures should be encoded in that text rather than returned.
type Tool struct {
	Spec ToolSpec
	Call func(ctx context.Context, call ToolCall) string
}

// Message is one entry of a tool loop transcript.
type Message struct {
	Role    string       `json:"role"`
	Content string       `json:"content,omitempty"`
	Calls   []ToolCall   `json:"tool_calls,omitempty"`
	Results []ToolResult `json:"tool_results,omitempty"`
}

// LoopResult is the transcript of a finished tool loop.
type LoopResult struct {
	Messages  []Message
	Final     string
	ToolCalls int
	Exhausted bool
}

// Specs returns the declarations of tools.
func Specs(tools []Tool) []ToolSpec {
	specs := make([]ToolSpec, len(tools))
	for i, t := range tools {
		specs[i] = t.Spec
	}
	return specs
}

// RunToolLoop sends prompt and keeps executing requested tools until the model answers
// without tool calls or maxSteps rounds of tools have run. After the last allowed round
// the model is told to stop and whatever text it returns is final.
func RunToolLoop(ctx context.Context, chat Chat, prompt string, tools []Tool, maxSteps int, verbose bool) (*LoopResult, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxToolSteps
	}
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Spec.Name] = t
	}

	res := &LoopResult{Messages: []Message{{Role: "user", Content: prompt}}}
	in := Input{Text: prompt}

	for step := 1; ; step++ {
		reply, err := chat.Send(ctx, in)
		if err != nil {
			return res, fmt.Errorf("model call failed at step %d: %w", step, err)
		}

		text := NormalizeContent(reply.Content)
		res.Messages = append(res.Messages, Message{Role: "assistant", Content: text, Calls: reply.Calls})

		if len(reply.Calls) == 0 || res.Exhausted {
			res.Final = text
			return res, nil
		}

		results := make([]ToolResult, 0, len(reply.Calls))
		for _, call := range reply.Calls {
			res.ToolCalls++
			if verbose {
				log.Printf("[TOOLS] step=%d call=%s args=%v", step, call.Name, call.Args)
			}
			tool, ok := byName[call.Name]
			if !ok {
				results = append(results, ToolResult{Name: call.Name, Output: errorJSON(fmt.Sprintf("unknown tool %q", call.Name))})
				continue
			}
			results = append(results, ToolResult{Name: call.Name, Output: tool.Call(ctx, call)})
		}
		res.Messages = append(res.Messages, Message{Role: "tool", Results: results})

		in = Input{Results: results}
		if step >= maxSteps {
			res.Exhausted = true
			in.Text = budgetExhausted
			if verbose {
				log.Printf("[TOOLS] step bound %d reached, requesting final answer", maxSteps)
			}
		}
	}
}

func errorJSON(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
