package mcp

import (
	"encoding/json"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ResponseEnvelope is the JSON body of every successful tool result.
type ResponseEnvelope struct {
	Data     any            `json:"data"`
	Context  map[string]any `json:"context"`
	Warnings []string       `json:"warnings,omitempty"`

	// Charts is Mermaid markdown sent as a second content block.
	Charts string `json:"-"`
}

func (s *Server) envelope(data any, warnings ...string) *ResponseEnvelope {
	return &ResponseEnvelope{
		Data: data,
		Context: map[string]any{
			"session":     s.session.ID,
			"active_view": s.session.ActiveView(),
		},
		Warnings: warnings,
	}
}

// toolResult turns a handler outcome into MCP content. Handler errors become tool errors
// so the model sees the message instead of a protocol failure.
func toolResult(env *ResponseEnvelope, err error) (*sdk.CallToolResult, any, error) {
	if err != nil {
		log.Warn().Err(err).Msg("Tool call failed")
		return &sdk.CallToolResult{
			IsError: true,
			Content: []sdk.Content{&sdk.TextContent{Text: err.Error()}},
		}, nil, nil
	}

	body, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	content := []sdk.Content{&sdk.TextContent{Text: string(body)}}
	if env.Charts != "" {
		content = append(content, &sdk.TextContent{Text: env.Charts})
	}
	return &sdk.CallToolResult{Content: content}, nil, nil
}
