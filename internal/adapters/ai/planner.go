// Package ai turns a goal into a proposed list of milestones.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const maxMilestones = 10

var ErrEmptyPlan = errors.New("planner returned no milestones")

// ChatService is the slice of the OpenAI client the planner needs.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIPlanner asks a chat model for a milestone breakdown.
type OpenAIPlanner struct {
	chat  ChatService
	model openai.ChatModel
}

func NewOpenAIPlanner(apiKey, model string) *OpenAIPlanner {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIPlanner{
		chat:  client.Chat.Completions,
		model: openai.ChatModel(model),
	}
}

type planResponse struct {
	Milestones []struct {
		Title string `json:"title"`
	} `json:"milestones"`
}

func buildPrompt(title, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I want to achieve the goal: %q.\n", title)
	if description != "" {
		fmt.Fprintf(&b, "Context: %q.\n", description)
	}
	b.WriteString("Break it down into 3 to 7 specific, actionable milestones in the order they should be done.\n")
	b.WriteString(`Return ONLY a JSON object of the form {"milestones":[{"title":"..."}]} without markdown or explanations.`)
	return b.String()
}

func (p *OpenAIPlanner) SuggestMilestones(ctx context.Context, title, description string) ([]string, error) {
	resp, err := p.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a planning assistant that answers with strict JSON."),
			openai.UserMessage(buildPrompt(title, description)),
		}),
		Model:       openai.F(p.model),
		Temperature: openai.F(0.3),
	})
	if err != nil {
		return nil, fmt.Errorf("milestone plan request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyPlan
	}

	return parsePlan(resp.Choices[0].Message.Content)
}

// parsePlan reads the model answer, tolerating a surrounding code fence.
func parsePlan(text string) ([]string, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var plan planResponse
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("malformed milestone plan: %w", err)
	}

	titles := make([]string, 0, len(plan.Milestones))
	for _, m := range plan.Milestones {
		t := strings.TrimSpace(m.Title)
		if t == "" {
			continue
		}
		titles = append(titles, t)
		if len(titles) == maxMilestones {
			break
		}
	}
	if len(titles) == 0 {
		return nil, ErrEmptyPlan
	}
	return titles, nil
}

// StaticPlanner returns the same generic breakdown for every goal. It is used
// when no model API key is configured.
type StaticPlanner struct{}

func (StaticPlanner) SuggestMilestones(ctx context.Context, title, description string) ([]string, error) {
	return []string{"Research the basics", "First practice", "Review and refine"}, nil
}
