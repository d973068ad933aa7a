package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
)

const defaultMaxAgentSteps = 8

// Agent is the orchestration core: a per-query state machine that walks the
// fixed tool roster in order and synthesizes a grounded answer. The ordering
// encodes a trust hierarchy: curated manuals outrank scraped online content,
// which outranks open web search. Later tools fill gaps and surface citable
// links; they never override earlier findings.
type Agent struct {
	completer    ports.Completer
	tools        []Tool
	systemPrompt string
	maxSteps     int
}

func NewAgent(completer ports.Completer, tools []Tool, maxSteps int) *Agent {
	if maxSteps <= 0 {
		maxSteps = defaultMaxAgentSteps
	}
	return &Agent{
		completer:    completer,
		tools:        tools,
		systemPrompt: buildSystemPrompt(tools),
		maxSteps:     maxSteps,
	}
}

// Run executes the reasoning loop for one query. History is read-only
// context; the caller owns appending the resulting turns to the session.
//
// A completion or retrieval provider error is fatal to the query. A
// protocol violation (unparseable step, out-of-order tool request, early
// final answer) fails closed into a best-effort synthesis over the
// observations gathered so far.
func (a *Agent) Run(ctx context.Context, question string, history []domain.Turn) (*domain.QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "agent run", errors.New("empty question"))
	}

	convo := make([]domain.Turn, 0, len(history)+2*a.maxSteps+1)
	convo = append(convo, history...)
	convo = append(convo, domain.Turn{Role: domain.RoleUser, Content: question})

	sources := make([]domain.ScoredPassage, 0, retrievalTopK*len(a.tools))
	scratchpad := make([]string, 0, len(a.tools))
	toolsInvoked := make([]string, 0, len(a.tools))
	invoked := 0

	for step := 0; step < a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := a.completer.Complete(ctx, a.systemPrompt, convo)
		if err != nil {
			return nil, domain.WrapError(domain.ErrProvider, "completion: reasoning step", err)
		}

		parsed, err := parseAgentStep(raw)
		if err != nil {
			slog.Warn("agent step unparseable, failing closed", "step", step, "error", err)
			return a.synthesize(ctx, question, scratchpad, sources, toolsInvoked)
		}

		switch parsed.Kind {
		case stepFinal:
			if invoked == 0 {
				// Domain guard: an immediate answer without any tool call is
				// the refusal path. Zero tool invocations, no sources.
				return &domain.QueryResult{Answer: parsed.Answer, SourceNodes: []domain.ScoredPassage{}, Refused: true}, nil
			}
			if invoked < len(a.tools) {
				slog.Warn("final answer before completing tool roster, failing closed", "invoked", invoked)
				return a.synthesize(ctx, question, scratchpad, sources, toolsInvoked)
			}
			return &domain.QueryResult{Answer: parsed.Answer, SourceNodes: sources, ToolsInvoked: toolsInvoked}, nil

		case stepAction:
			if invoked >= len(a.tools) {
				slog.Warn("tool requested after roster exhausted, failing closed", "tool", parsed.Tool)
				return a.synthesize(ctx, question, scratchpad, sources, toolsInvoked)
			}
			expected := a.tools[invoked]
			if parsed.Tool != expected.Name() {
				slog.Warn("out-of-order tool request, failing closed",
					"requested", parsed.Tool,
					"expected", expected.Name(),
				)
				return a.synthesize(ctx, question, scratchpad, sources, toolsInvoked)
			}

			observation, passages, err := expected.Call(ctx, parsed.Input)
			if err != nil {
				return nil, err
			}
			invoked++
			toolsInvoked = append(toolsInvoked, expected.Name())
			sources = append(sources, passages...)
			obs := formatObservation(expected.Name(), observation)
			scratchpad = append(scratchpad, obs)
			convo = append(convo,
				domain.Turn{Role: domain.RoleAssistant, Content: raw},
				domain.Turn{Role: domain.RoleUser, Content: obs},
			)
			slog.Debug("agent tool observed", "tool", expected.Name(), "passages", len(passages))
		}
	}

	slog.Warn("agent step budget exhausted, failing closed", "invoked", invoked)
	return a.synthesize(ctx, question, scratchpad, sources, toolsInvoked)
}

func (a *Agent) synthesize(ctx context.Context, question string, scratchpad []string, sources []domain.ScoredPassage, toolsInvoked []string) (*domain.QueryResult, error) {
	answer, err := a.completer.Complete(ctx, a.systemPrompt, []domain.Turn{
		{Role: domain.RoleUser, Content: buildSynthesisPrompt(question, scratchpad)},
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrProvider, "completion: synthesis", err)
	}
	answer = strings.TrimSpace(answer)
	answer = strings.TrimSpace(strings.TrimPrefix(answer, "Answer:"))
	if answer == "" {
		answer = "I could not assemble an answer from the available sources. Please rephrase the question."
	}
	if sources == nil {
		sources = []domain.ScoredPassage{}
	}
	return &domain.QueryResult{Answer: answer, SourceNodes: sources, ToolsInvoked: toolsInvoked}, nil
}
