package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taleemlabs/taleem-backend/internal/model"
)

// Collaborator responses are untrusted JSON. Parsing fails closed: any
// missing language key, shape mismatch or impossible score rejects the
// whole response rather than letting a malformed question or report reach
// exam state.

type generatedQuestion struct {
	Prompt          map[model.Language]string   `json:"prompt"`
	Kind            model.QuestionKind          `json:"kind"`
	Options         map[model.Language][]string `json:"options"`
	ReferenceAnswer map[model.Language]string   `json:"reference_answer"`
}

type generationResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

func parseGenerationResponse(raw string, spec model.AssessmentSpec) ([]model.Question, error) {
	var resp generationResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decode: %w (raw: %s)", err, truncate(raw, 200))
	}

	langs := model.NormalizeLanguages(spec.Languages)

	questions := make([]model.Question, 0, len(resp.Questions))
	for i, gq := range resp.Questions {
		prompt, err := joinKeyed(gq.Prompt, langs)
		if err != nil {
			return nil, fmt.Errorf("question %d prompt: %w", i+1, err)
		}
		if !gq.Kind.Valid() {
			return nil, fmt.Errorf("question %d: unknown kind %q", i+1, gq.Kind)
		}

		reference, err := joinKeyed(gq.ReferenceAnswer, langs)
		if err != nil {
			return nil, fmt.Errorf("question %d reference answer: %w", i+1, err)
		}

		q := model.Question{
			Prompt:          prompt,
			Kind:            gq.Kind,
			ReferenceAnswer: reference,
		}

		if gq.Kind == model.QuestionKindMCQ {
			options, err := joinKeyedOptions(gq.Options, langs)
			if err != nil {
				return nil, fmt.Errorf("question %d options: %w", i+1, err)
			}
			q.Options = options
		} else if len(gq.Options) > 0 {
			return nil, fmt.Errorf("question %d: options present on %s question", i+1, gq.Kind)
		}

		questions = append(questions, q)
	}

	return questions, nil
}

// joinKeyed renders per-language keyed text as the single joined prompt
// string, requiring exactly the requested languages (no extras) and
// following canonical language order.
func joinKeyed(texts map[model.Language]string, langs []model.Language) (string, error) {
	if err := rejectUnrequested(mapKeys(texts), langs); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(langs))
	for _, l := range langs {
		text, ok := texts[l]
		if !ok || strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("missing %s text", l)
		}
		parts = append(parts, strings.TrimSpace(text))
	}
	return strings.Join(parts, model.PromptSeparator), nil
}

// joinKeyedOptions joins MCQ options position-wise across languages. Every
// requested language must supply the same number of options, and no other
// language may appear.
func joinKeyedOptions(options map[model.Language][]string, langs []model.Language) ([]string, error) {
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages requested")
	}
	if err := rejectUnrequested(mapKeys(options), langs); err != nil {
		return nil, err
	}
	count := len(options[langs[0]])
	if count == 0 {
		return nil, fmt.Errorf("missing %s options", langs[0])
	}
	for _, l := range langs {
		if len(options[l]) != count {
			return nil, fmt.Errorf("option count mismatch: %s has %d, %s has %d",
				langs[0], count, l, len(options[l]))
		}
	}

	joined := make([]string, count)
	for i := 0; i < count; i++ {
		parts := make([]string, 0, len(langs))
		for _, l := range langs {
			text := strings.TrimSpace(options[l][i])
			if text == "" {
				return nil, fmt.Errorf("empty %s option %d", l, i+1)
			}
			parts = append(parts, text)
		}
		joined[i] = strings.Join(parts, model.PromptSeparator)
	}
	return joined, nil
}

// rejectUnrequested fails when the response carries text in a language the
// paper never asked for. A stray key usually means the model ignored part
// of the language instruction, so the rest of its output is suspect too.
func rejectUnrequested(keys, langs []model.Language) error {
	for _, k := range keys {
		requested := false
		for _, l := range langs {
			if k == l {
				requested = true
				break
			}
		}
		if !requested {
			return fmt.Errorf("unrequested %s text", k)
		}
	}
	return nil
}

func mapKeys[V any](m map[model.Language]V) []model.Language {
	keys := make([]model.Language, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func parseGradingResponse(raw string, questionCount int) (*model.ReportCard, error) {
	var card model.ReportCard
	if err := json.Unmarshal([]byte(raw), &card); err != nil {
		return nil, fmt.Errorf("decode: %w (raw: %s)", err, truncate(raw, 200))
	}

	if len(card.Breakdown) != questionCount {
		return nil, fmt.Errorf("breakdown has %d entries, expected %d", len(card.Breakdown), questionCount)
	}
	if card.ScoreTotal <= 0 {
		return nil, fmt.Errorf("score_total must be positive, got %d", card.ScoreTotal)
	}
	if card.ScoreObtained < 0 || card.ScoreObtained > card.ScoreTotal {
		return nil, fmt.Errorf("score_obtained %d out of range 0..%d", card.ScoreObtained, card.ScoreTotal)
	}

	return &card, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
