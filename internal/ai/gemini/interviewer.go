package gemini

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/ai"
	"github.com/spigell/ai-interviewer/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompts/*.md
var promptFiles embed.FS

const (
	defaultMaxLogLength = 200
	defaultRole         = "Full Stack React/Node.js developer"
)

var (
	leadingInteger = regexp.MustCompile(`^-?\d+(?:\.\d+)?`)
	questionLabel  = regexp.MustCompile(`(?i)^(?:question|q)\s*\d*\s*[:.)-]\s*`)
)

// Interviewer implements ai.Interviewer on top of a Gemini content generator.
type Interviewer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewInterviewer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Interviewer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Interviewer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (i *Interviewer) Question(ctx context.Context, p ai.QuestionPrompt) (string, error) {
	asked := "None"
	if len(p.Asked) > 0 {
		quoted := make([]string, 0, len(p.Asked))
		for _, q := range p.Asked {
			quoted = append(quoted, strconv.Quote(q))
		}
		asked = strings.Join(quoted, ", ")
	}

	message := render("question.md", map[string]string{
		"DIFFICULTY": p.Difficulty,
		"ASKED":      asked,
	})

	raw, err := i.generate(ctx, "question", systemPrompt(p.Role), message)
	if err != nil {
		return "", err
	}

	question := cleanQuestion(raw)
	if question == "" {
		return "", errors.New("gemini returned an empty question")
	}

	return question, nil
}

func (i *Interviewer) Score(ctx context.Context, p ai.ScorePrompt) (*ai.Assessment, error) {
	message := render("score.md", map[string]string{
		"QUESTION":   p.Question,
		"ANSWER":     p.Answer,
		"DIFFICULTY": p.Difficulty,
		"MAX_SCORE":  strconv.Itoa(ai.MaxScore),
	})

	raw, err := i.generate(ctx, "score", "", message)
	if err != nil {
		return nil, err
	}

	assessment, err := parseScore(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

func (i *Interviewer) Summarize(ctx context.Context, role string, turns []ai.Turn) (string, error) {
	var transcript strings.Builder
	for n, turn := range turns {
		answer := turn.Answer
		score := strconv.Itoa(turn.Score)
		if !turn.Answered {
			answer = "(not answered)"
			score = "-"
		}
		fmt.Fprintf(&transcript, "Q%d (%s): %s\nAnswer: %s\nScore: %s/%d\n\n",
			n+1, turn.Difficulty, turn.Question, answer, score, ai.MaxScore)
	}

	message := render("summary.md", map[string]string{
		"ROLE":       roleOrDefault(role),
		"TRANSCRIPT": strings.TrimSpace(transcript.String()),
	})

	raw, err := i.generate(ctx, "summary", "", message)
	if err != nil {
		return "", err
	}

	summary := stripEmphasis(strings.TrimSpace(raw))
	if summary == "" {
		return "", errors.New("gemini returned an empty summary")
	}

	return summary, nil
}

func (i *Interviewer) generate(ctx context.Context, operation, system, message string) (string, error) {
	i.logger.Debug("gemini generate content request",
		zap.String("operation", operation),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, i.maxLogLen)),
	)

	raw, err := i.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	i.logger.Debug("gemini generate content response",
		zap.String("operation", operation),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, i.maxLogLen)),
	)

	return raw, nil
}

func systemPrompt(role string) string {
	return render("system.md", map[string]string{"ROLE": roleOrDefault(role)})
}

func roleOrDefault(role string) string {
	if role = strings.TrimSpace(role); role != "" {
		return role
	}
	return defaultRole
}

func render(name string, values map[string]string) string {
	data, err := promptFiles.ReadFile("prompts/" + name)
	if err != nil {
		// embedded at build time, so this only happens on a broken build
		panic(fmt.Sprintf("missing prompt template %s: %v", name, err))
	}

	prompt := string(data)
	for key, value := range values {
		prompt = strings.ReplaceAll(prompt, "{{"+key+"}}", value)
	}
	return strings.TrimSpace(prompt)
}

type scoreResponse struct {
	Score    float64 `mapstructure:"score"`
	Feedback string  `mapstructure:"feedback"`
}

func parseScore(raw string) (*ai.Assessment, error) {
	cleaned := extractJSON(strings.TrimSpace(raw))

	var response scoreResponse
	if strings.HasPrefix(cleaned, "{") {
		var data map[string]any
		if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ai.ErrUnparseable, err)
		}
		if _, ok := data["score"]; !ok {
			return nil, fmt.Errorf("%w: score field is missing", ai.ErrUnparseable)
		}

		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &response,
		})
		if err != nil {
			return nil, fmt.Errorf("build score decoder: %w", err)
		}
		if err := decoder.Decode(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ai.ErrUnparseable, err)
		}
	} else {
		match := leadingInteger.FindString(cleaned)
		if match == "" {
			return nil, fmt.Errorf("%w: no number in %q", ai.ErrUnparseable, utils.TruncateForLog(cleaned, 40))
		}
		value, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ai.ErrUnparseable, err)
		}
		response.Score = value
	}

	if math.IsNaN(response.Score) {
		return nil, fmt.Errorf("%w: score is not a number", ai.ErrUnparseable)
	}

	return &ai.Assessment{
		Score:    clampScore(int(math.Round(response.Score))),
		Feedback: strings.TrimSpace(response.Feedback),
	}, nil
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > ai.MaxScore:
		return ai.MaxScore
	default:
		return score
	}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func cleanQuestion(raw string) string {
	text := stripEmphasis(extractJSON(raw))
	text = utils.CollapseSpaces(text)
	text = strings.ReplaceAll(text, "\n", " ")
	text = questionLabel.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.Trim(strings.TrimSpace(text), `"“”`)
}

func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "__", "")
}
