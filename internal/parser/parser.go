// Package parser extracts (thought, action) pairs from raw model
// completions. Three formats are recognized, selected by configuration:
// fenced code blocks, <command> tags and <tool_call> JSON payloads.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"tribunal/internal/agent/ports"
)

// Config selects and configures one parser variant.
type Config struct {
	// Type is one of "code_block", "command" or "tool_call". Defaults to
	// "code_block".
	Type string `yaml:"type"`
}

// FromConfig builds the configured parser. The variant set is closed; an
// unknown type is a configuration error.
func FromConfig(config Config) (ports.ActionParser, error) {
	switch config.Type {
	case "", "code_block":
		return CodeBlockParser{}, nil
	case "command":
		return CommandParser{}, nil
	case "tool_call":
		return ToolCallParser{}, nil
	default:
		return nil, fmt.Errorf("unknown parser type %q", config.Type)
	}
}

var codeBlockPattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\n(.*?)```")

// CodeBlockParser takes the first fenced code block as the action and
// everything before it as the thought.
type CodeBlockParser struct{}

func (CodeBlockParser) ParseAction(completion ports.Completion) (string, string, error) {
	content := completion.Content
	loc := codeBlockPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", "", fmt.Errorf("%w: no fenced code block", ports.ErrMalformedCompletion)
	}
	thought := strings.TrimSpace(content[:loc[0]])
	action := strings.TrimSpace(content[loc[2]:loc[3]])
	if action == "" {
		return "", "", fmt.Errorf("%w: empty code block", ports.ErrMalformedCompletion)
	}
	return thought, action, nil
}

var commandPattern = regexp.MustCompile(`(?s)<command>(.*?)</command>`)

// CommandParser takes the first <command> element as the action and
// everything before it as the thought.
type CommandParser struct{}

func (CommandParser) ParseAction(completion ports.Completion) (string, string, error) {
	content := completion.Content
	loc := commandPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", "", fmt.Errorf("%w: no <command> element", ports.ErrMalformedCompletion)
	}
	thought := strings.TrimSpace(content[:loc[0]])
	action := strings.TrimSpace(content[loc[2]:loc[3]])
	if action == "" {
		return "", "", fmt.Errorf("%w: empty <command> element", ports.ErrMalformedCompletion)
	}
	return thought, action, nil
}

var (
	toolCallPattern = regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`)
	toolNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// ToolCallParser takes the first <tool_call> JSON payload of the form
// {"name": ..., "args": {...}} as the action, normalized to canonical JSON
// so identical calls deduplicate regardless of formatting. Slightly broken
// JSON is repaired before giving up.
type ToolCallParser struct{}

func (ToolCallParser) ParseAction(completion ports.Completion) (string, string, error) {
	content := completion.Content
	loc := toolCallPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", "", fmt.Errorf("%w: no <tool_call> element", ports.ErrMalformedCompletion)
	}
	thought := strings.TrimSpace(content[:loc[0]])
	payload := content[loc[2]:loc[3]]

	call, err := decodeToolCall(payload)
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(payload)
		if repairErr != nil {
			return "", "", fmt.Errorf("%w: %v", ports.ErrMalformedCompletion, err)
		}
		if call, err = decodeToolCall(repaired); err != nil {
			return "", "", fmt.Errorf("%w: %v", ports.ErrMalformedCompletion, err)
		}
	}
	if !toolNamePattern.MatchString(call.Name) {
		return "", "", fmt.Errorf("%w: invalid tool name %q", ports.ErrMalformedCompletion, call.Name)
	}
	action, err := json.Marshal(call)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ports.ErrMalformedCompletion, err)
	}
	return thought, string(action), nil
}

type toolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

func decodeToolCall(payload string) (toolCall, error) {
	var call toolCall
	if err := json.Unmarshal([]byte(payload), &call); err != nil {
		return toolCall{}, err
	}
	if call.Name == "" {
		return toolCall{}, fmt.Errorf("tool call without name")
	}
	return call, nil
}
