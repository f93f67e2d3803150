package rag

import (
	"context"
	"errors"
	"log/slog"

	"ragchat/internal/llm"
)

// Canned answers for generation failures. Query-time failures never surface
// as errors; every question gets some answer message.
const (
	answerUnavailable = "Sorry, the AI service is currently unavailable. Please try again in a moment."
	answerBadResponse = "Sorry, I could not generate a response."
)

// Answer is the complete reply to one question.
type Answer struct {
	Text    string            `json:"text"`
	Sources []SourceReference `json:"sources"`
}

// Service orchestrates the answer pipeline: retrieve, assemble context,
// generate, attribute sources.
type Service struct {
	retriever *Retriever
	client    llm.Client
	genOpts   llm.GenerateOptions
}

func NewService(retriever *Retriever, client llm.Client, genOpts llm.GenerateOptions) *Service {
	return &Service{retriever: retriever, client: client, genOpts: genOpts}
}

// Answer retrieves passages relevant to question and asks the model to
// answer from them. Retrieval failure degrades to an ungrounded answer;
// generation failure degrades to an apologetic canned answer. Neither is an
// error to the caller.
func (s *Service) Answer(ctx context.Context, question string) (Answer, error) {
	results := s.retriever.Retrieve(ctx, question)

	contextText := BuildContext(results)
	prompt := buildPrompt(contextText, question)

	text, err := s.client.Generate(ctx, prompt, s.genOpts)
	if err != nil {
		slog.Error("generation failed", "error", err)
		return Answer{Text: generationFailureText(err)}, nil
	}

	return Answer{
		Text:    text,
		Sources: AttributeSources(text, results),
	}, nil
}

func generationFailureText(err error) string {
	if errors.Is(err, llm.ErrBadResponse) {
		return answerBadResponse
	}
	return answerUnavailable
}
