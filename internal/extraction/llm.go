package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// llmExtraction is the fixed response schema for the structured
// extraction request.
type llmExtraction struct {
	BrandMentioned     bool           `json:"brandMentioned" jsonschema_description:"Whether the tracked brand is mentioned anywhere in the text"`
	BrandMentionCount  int            `json:"brandMentionCount" jsonschema_description:"How many times the tracked brand (any listed name) is mentioned"`
	CompetitorMentions []llmMention `json:"competitorMentions" jsonschema_description:"Competitors from the provided list that the text mentions"`
	Topics             []string       `json:"topics" jsonschema_description:"Up to five topics the text discusses"`
	Sentiment          string         `json:"sentiment" jsonschema:"enum=positive,enum=negative,enum=neutral,enum=mixed" jsonschema_description:"Overall sentiment toward the tracked brand"`
	CitedUrls          []string       `json:"citedUrls" jsonschema_description:"Every URL the text cites as a source"`
}

type llmMention struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LLM is the model-assisted extraction strategy: one structured request at
// temperature zero against a fixed schema. Anything unexpected is an
// error; the engine decides what happens next.
type LLM struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewLLM constructs the LLM strategy. An empty baseURL targets the public
// OpenAI API.
func NewLLM(apiKey, baseURL, model string, timeout time.Duration) *LLM {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LLM{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

// Name returns the strategy name.
func (s *LLM) Name() string { return "llm" }

// Extract issues the structured extraction request and maps the result
// onto Signals. Competitor names are resolved case-insensitively against
// the known list; unknown names are dropped; "mixed" collapses to neutral.
func (s *LLM) Extract(ctx context.Context, in Input) (Signals, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "brand_visibility_extraction",
		Description: openai.String("Extract brand and competitor visibility signals from an AI answer"),
		Schema:      GenerateSchema[llmExtraction](),
		Strict:      openai.Bool(true),
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You analyze AI-generated answers for brand visibility. Count mentions precisely and report only competitors from the provided list."),
			openai.UserMessage(s.buildPrompt(in)),
		},
		Model:       openai.ChatModel(s.model),
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Signals{}, fmt.Errorf("extraction request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Signals{}, fmt.Errorf("extraction response missing choices")
	}

	var parsed llmExtraction
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &parsed); err != nil {
		return Signals{}, fmt.Errorf("extraction response parse: %w", err)
	}
	return mapExtraction(parsed, in)
}

func (s *LLM) buildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("Tracked brand names: ")
	if len(in.BrandTerms) > 0 {
		b.WriteString(strings.Join(in.BrandTerms, ", "))
	} else {
		b.WriteString("(none)")
	}
	b.WriteString("\nKnown competitors: ")
	if len(in.Competitors) == 0 {
		b.WriteString("(none)")
	}
	for i, comp := range in.Competitors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(comp.Name)
		if len(comp.Terms) > 1 {
			fmt.Fprintf(&b, " (also known as %s)", strings.Join(comp.Terms[1:], ", "))
		}
	}
	b.WriteString("\n\nText to analyze:\n")
	b.WriteString(in.RawText)
	return b.String()
}

// mapExtraction validates the parsed payload and converts it to Signals.
func mapExtraction(parsed llmExtraction, in Input) (Signals, error) {
	sentiment := strings.ToLower(strings.TrimSpace(parsed.Sentiment))
	switch sentiment {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
	case "mixed":
		sentiment = SentimentNeutral
	default:
		return Signals{}, fmt.Errorf("extraction sentiment %q not in schema", parsed.Sentiment)
	}
	if parsed.BrandMentionCount < 0 {
		return Signals{}, fmt.Errorf("extraction mention count negative")
	}

	byID := make(map[string]int)
	nameByID := make(map[string]string)
	var order []string
	for _, mention := range parsed.CompetitorMentions {
		if mention.Count < 0 {
			return Signals{}, fmt.Errorf("extraction competitor count negative")
		}
		comp, ok := resolveCompetitor(mention.Name, in.Competitors)
		if !ok || mention.Count == 0 {
			continue
		}
		if _, seen := byID[comp.ID]; !seen {
			order = append(order, comp.ID)
			nameByID[comp.ID] = comp.Name
		}
		byID[comp.ID] += mention.Count
	}
	competitors := make([]CompetitorMention, 0, len(order))
	for _, id := range order {
		competitors = append(competitors, CompetitorMention{ID: id, Name: nameByID[id], Count: byID[id]})
	}

	topics := parsed.Topics
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}

	return Signals{
		BrandMentioned:     parsed.BrandMentioned || parsed.BrandMentionCount > 0,
		BrandMentionCount:  parsed.BrandMentionCount,
		CompetitorMentions: competitors,
		CitedDomains:       GroupURLs(parsed.CitedUrls),
		Sentiment:          sentiment,
		Topics:             topics,
	}, nil
}

func resolveCompetitor(name string, known []CompetitorTerms) (CompetitorTerms, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return CompetitorTerms{}, false
	}
	for _, comp := range known {
		for _, term := range comp.Terms {
			if strings.ToLower(strings.TrimSpace(term)) == needle {
				return comp, true
			}
		}
	}
	return CompetitorTerms{}, false
}

var _ Strategy = (*LLM)(nil)
