package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ledgerlens/internal/dateutils"
	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// minConfidence is the floor below which a classification is reported
// as unclear rather than as a usable category pick.
const minConfidence = 0.5

// GeminiClient implements AIClient against the Google Gemini API.
type GeminiClient struct {
	apiKey  string
	model   string
	timeout time.Duration
	logger  logging.Logger

	client *genai.Client
}

// NewGeminiClient creates a Gemini-backed classifier. The API client is
// created lazily on first use.
func NewGeminiClient(apiKey, model string, timeout time.Duration, logger logging.Logger) *GeminiClient {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *GeminiClient) ensureClient(ctx context.Context) error {
	if c.client != nil {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return fmt.Errorf("creating gemini client: %w", err)
	}
	c.client = client
	return nil
}

// Classify asks the model for a single JSON object naming one candidate
// category. Free-text responses embedding a JSON object are tolerated;
// complete non-JSON responses yield (nil, nil).
func (c *GeminiClient) Classify(ctx context.Context, tx models.Transaction, candidates []models.Category) (*Result, error) {
	if err := c.ensureClient(ctx); err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := buildPrompt(tx, candidates)

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := responseText(resp)
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	result := ParseResult(raw)
	if result == nil {
		c.logger.WithField("transaction", tx.ID).Debug("Classifier returned no usable suggestion")
		return nil, nil
	}

	c.logger.WithFields(
		logging.Field{Key: "transaction", Value: tx.ID},
		logging.Field{Key: "category", Value: result.CategoryName},
		logging.Field{Key: "confidence", Value: result.Confidence},
		logging.Field{Key: "unclear", Value: result.Unclear},
	).Debug("Classifier suggestion")

	return result, nil
}

// buildPrompt renders the transaction summary and the candidate
// category list into the classification instruction.
func buildPrompt(tx models.Transaction, candidates []models.Category) string {
	var b strings.Builder
	b.WriteString("You are a bookkeeping assistant classifying one business transaction ")
	b.WriteString("into exactly one of the allowed categories.\n\n")

	b.WriteString("Transaction:\n")
	fmt.Fprintf(&b, "- description: %q\n", tx.Description)
	if tx.CounterpartyName != "" {
		fmt.Fprintf(&b, "- counterparty: %q\n", tx.CounterpartyName)
	}
	fmt.Fprintf(&b, "- amount: %s\n", tx.Amount.StringFixed(2))
	if !tx.Date.IsZero() {
		fmt.Fprintf(&b, "- date: %s\n", dateutils.ToISODate(tx.Date))
	}
	fmt.Fprintf(&b, "- kind: %s\n\n", tx.Kind)

	b.WriteString("Allowed categories (id: name):\n")
	for _, cat := range candidates {
		fmt.Fprintf(&b, "- %s: %s\n", cat.ID, cat.Name)
	}

	b.WriteString("\nRespond with ONLY one JSON object, no Markdown, no code fences:\n")
	b.WriteString(`{"categoryId": "<id>", "categoryName": "<name>", "confidence": <0.0-1.0>, "reasoning": "<one sentence>"}` + "\n")
	b.WriteString("Pick the single best category. If no category fits with confidence of at least 0.5, ")
	b.WriteString(`respond with {"categoryId": "", "categoryName": "", "confidence": 0.0, "reasoning": "unclear"}.` + "\n")

	return b.String()
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// ParseResult extracts and decodes a classification result from raw
// model output. Malformed output yields nil, which callers treat as
// "no suggestion", never as an error.
func ParseResult(raw string) *Result {
	obj := ExtractJSONObject(raw)
	if obj == "" {
		return nil
	}

	var result Result
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return nil
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	if result.CategoryName == "" || result.Confidence < minConfidence {
		result.Unclear = true
	}
	return &result
}

// ExtractJSONObject returns the first balanced JSON object embedded in
// free text, tolerating Markdown code fences around it. It returns ""
// when no object can be found.
func ExtractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)

	// Strip ``` / ```json wrappers if the model ignored instructions.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
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
				return s[start : i+1]
			}
		}
	}
	return ""
}
