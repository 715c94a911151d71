package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"taskpilot/backend/internal/models"

	"github.com/go-playground/validator/v10"
)

const jsonOnlySystem = "You are an expert project manager. Reply with a single JSON object that matches the requested shape and nothing else."

const (
	outlinePrompt = "You are an expert project manager. Generate a detailed project outline based on the following project description:\n\n" +
		"Project Description: %s\n\n" +
		"Respond as JSON: {\"projectOutline\": string}"

	tasksPrompt = "You are an expert project manager. Based on the following project description, generate a list of 5-10 initial tasks to help the user get started.\n\n" +
		"Project Description: %s\n\n" +
		"Generate tasks that are actionable and cover the main areas of the project. Assign a priority to each task.\n\n" +
		"Respond as JSON: {\"tasks\": [{\"title\": string, \"priority\": \"Low\" | \"Medium\" | \"High\"}]}"

	summaryPrompt = "Summarize the following progress notes into key takeaways:\n\n%s\n\n" +
		"Respond as JSON: {\"summary\": string}"
)

type ProjectOutline struct {
	Outline string `json:"projectOutline" validate:"required"`
}

type TaskSuggestion struct {
	Title    string              `json:"title" validate:"required"`
	Priority models.TaskPriority `json:"priority" validate:"oneof=Low Medium High"`
}

type TaskSuggestions struct {
	Tasks []TaskSuggestion `json:"tasks" validate:"required,dive"`
}

type ProgressSummary struct {
	Summary string `json:"summary" validate:"required"`
}

// Completer is the model call the prompt wrappers depend on.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Assistant struct {
	model    Completer
	validate *validator.Validate
}

func NewAssistant(model Completer) *Assistant {
	return &Assistant{model: model, validate: validator.New()}
}

func (a *Assistant) GenerateProjectOutline(ctx context.Context, description string) (ProjectOutline, error) {
	var out ProjectOutline
	err := a.run(ctx, outlinePrompt, description, &out)
	return out, err
}

func (a *Assistant) GenerateTasksForProject(ctx context.Context, description string) (TaskSuggestions, error) {
	var out TaskSuggestions
	err := a.run(ctx, tasksPrompt, description, &out)
	return out, err
}

func (a *Assistant) SummarizeProgressNotes(ctx context.Context, notes string) (ProgressSummary, error) {
	var out ProgressSummary
	err := a.run(ctx, summaryPrompt, notes, &out)
	return out, err
}

func (a *Assistant) run(ctx context.Context, prompt, input string, dest interface{}) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return ErrEmptyInput
	}

	reply, err := a.model.Complete(ctx, jsonOnlySystem, fmt.Sprintf(prompt, input))
	if err != nil {
		return err
	}

	raw, ok := extractJSONObject(reply)
	if !ok {
		return fmt.Errorf("%w: no JSON object in reply", ErrInvalidResponse)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := a.validate.Struct(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// extractJSONObject returns the first balanced {...} in s, skipping braces
// inside string literals. Models often wrap JSON in prose or code fences.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
