package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"neurocards/config"
	"neurocards/models"

	"go.uber.org/zap"
)

// flashcardsPrompt asks the model for open-ended question/answer pairs as a
// JSON array embedded in its reply.
const flashcardsPrompt = `<start_of_turn>user
You are a helpful assistant that generates open-ended flashcard-style questions based on an input text."
Please extract important facts or concepts and generate a list of 1-3 questions for every paragraph in the following JSON format:
[
  {
    "question": "What is ...?",
    "answer": "It is a ..."
  },
  ...
]

Input:
%s<end_of_turn>
<start_of_turn>model
`

// LLMService generates draft cards from free text through an
// Ollama-compatible chat endpoint. It is never called while a database
// transaction is open.
type LLMService struct {
	url    string
	model  string
	client *http.Client
}

func NewLLMService(cfg *config.Config) *LLMService {
	return &LLMService{
		url:   cfg.LLMURL,
		model: cfg.LLMModel,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type GenerateFromTextRequest struct {
	Text string `json:"text" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// GeneratedCard is a draft card. TempID lets the client track drafts before
// they are persisted through the deck endpoints.
type GeneratedCard struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Difficulty    int      `json:"difficulty"`
	TempID        int64    `json:"tempId"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

type flashcardItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GenerateCards dispatches on deck type. Quiz generation is not implemented
// and returns an empty list.
func (s *LLMService) GenerateCards(ctx context.Context, req *GenerateFromTextRequest) ([]GeneratedCard, error) {
	if !models.ValidDeckType(req.Type) {
		return nil, fmt.Errorf("%w: unknown deck type %q", ErrValidation, req.Type)
	}
	if req.Type == models.DeckTypeQuiz {
		return []GeneratedCard{}, nil
	}
	return s.generateFlashcardsFromText(ctx, req.Text)
}

func (s *LLMService) generateFlashcardsFromText(ctx context.Context, text string) ([]GeneratedCard, error) {
	content, err := s.sendRequest(ctx, fmt.Sprintf(flashcardsPrompt, text))
	if err != nil {
		return nil, err
	}

	items, err := parseFlashcardItems(content)
	if err != nil {
		config.Log.Warn("unparsable model output", zap.Error(err))
		return nil, fmt.Errorf("%w: model returned no usable cards", ErrValidation)
	}

	cards := make([]GeneratedCard, 0, len(items))
	now := time.Now().UnixMilli()
	for i, item := range items {
		cards = append(cards, GeneratedCard{
			Question:      item.Question,
			Options:       []string{item.Answer},
			CorrectAnswer: 0,
			Difficulty:    0,
			TempID:        now + int64(i),
		})
	}
	return cards, nil
}

func (s *LLMService) sendRequest(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model:    s.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	config.Log.Info("sending generation request", zap.String("model", s.model))
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: model backend returned %d: %s", ErrValidation, resp.StatusCode, data)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", err
	}
	return chat.Message.Content, nil
}

// parseFlashcardItems slices the outermost JSON array out of the model's
// reply; models tend to wrap it in prose.
func parseFlashcardItems(content string) ([]flashcardItem, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in model output")
	}

	var items []flashcardItem
	if err := json.Unmarshal([]byte(content[start:end+1]), &items); err != nil {
		return nil, err
	}
	return items, nil
}
