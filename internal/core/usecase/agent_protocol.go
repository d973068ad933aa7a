package usecase

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The reasoning protocol is a small textual grammar the completion model is
// instructed to emit:
//
//	step       = thought? (action | final)
//	thought    = "Thought:" text NL
//	action     = "Action:" tool-name NL "Action Input:" input NL
//	input      = json-object-with-"input"-key | raw-text
//	final      = "Answer:" text-until-end
//
// The parser is strict and fails closed: anything that does not match is a
// protocol violation, and the caller emits a best-effort answer instead of
// guessing at a route.

type stepKind int

const (
	stepAction stepKind = iota
	stepFinal
)

type agentStep struct {
	Kind   stepKind
	Tool   string
	Input  string
	Answer string
}

type protocolError struct {
	reason string
}

func (e *protocolError) Error() string {
	return "protocol violation: " + e.reason
}

func parseAgentStep(raw string) (agentStep, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return agentStep{}, &protocolError{reason: "empty completion"}
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Answer:"):
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "Answer:"))
			tail := strings.Join(lines[i+1:], "\n")
			answer := strings.TrimSpace(rest + "\n" + tail)
			if answer == "" {
				return agentStep{}, &protocolError{reason: "empty answer"}
			}
			return agentStep{Kind: stepFinal, Answer: answer}, nil

		case strings.HasPrefix(trimmed, "Action:"):
			tool := strings.TrimSpace(strings.TrimPrefix(trimmed, "Action:"))
			if tool == "" {
				return agentStep{}, &protocolError{reason: "empty tool name"}
			}
			input, err := parseActionInput(lines[i+1:])
			if err != nil {
				return agentStep{}, err
			}
			return agentStep{Kind: stepAction, Tool: tool, Input: input}, nil
		}
	}
	return agentStep{}, &protocolError{reason: "no Action or Answer line"}
}

func parseActionInput(lines []string) (string, error) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "Action Input:") {
			return "", &protocolError{reason: fmt.Sprintf("expected Action Input line, got %q", trimmed)}
		}
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "Action Input:"))
		if rest == "" {
			return "", &protocolError{reason: "empty action input"}
		}
		if strings.HasPrefix(rest, "{") {
			var payload struct {
				Input string `json:"input"`
			}
			if err := json.Unmarshal([]byte(rest), &payload); err != nil {
				return "", &protocolError{reason: "malformed action input json"}
			}
			if strings.TrimSpace(payload.Input) == "" {
				return "", &protocolError{reason: "action input json missing input key"}
			}
			return strings.TrimSpace(payload.Input), nil
		}
		return strings.Trim(rest, `"`), nil
	}
	return "", &protocolError{reason: "missing Action Input line"}
}
