// Package assistant answers questions about an ingested manual. A question
// is embedded and matched against the vector store; the best chunks are
// placed into a fixed instruction template and sent to the chat model once.
// The answer names the page of the best match.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/ragmanual-go/internal/budget"
	"github.com/54b3r/ragmanual-go/internal/logging"
	"github.com/54b3r/ragmanual-go/internal/rag"
)

// NoContextMessage is returned verbatim when retrieval finds nothing.
const NoContextMessage = "No relevant context found. Please change your question."

// DefaultSubject fills the template's subject when none is configured.
const DefaultSubject = "the rules of the tabletop game Runewars"

const (
	defaultTopK     = 5
	defaultMinScore = 0.7
)

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("assistant: question must not be empty")

// directTemplate is the instruction sent in direct mode.
const directTemplate = `You're assisting with providing {subject}.
Use the information from the DOCUMENTS section to provide accurate answers to the
question in the QUESTION section.
If unsure, simply state that you don't know.

DOCUMENTS:
{documents}

QUESTION:
{question}`

// advisedTemplate appends the retrieved context to the user's own question.
const advisedTemplate = `{question}
Context information is below, surrounded by ---------------------

---------------------
{documents}
---------------------

Given the context and provided history information and not prior knowledge,
reply to the user comment. If the answer is not in the context, inform
the user that you can't answer the question.`

// Mode selects how retrieved context reaches the model.
type Mode string

const (
	// ModeDirect answers from the fixed template, short-circuits on empty
	// retrieval and cites the page of the best match.
	ModeDirect Mode = "direct"
	// ModeAdvised appends the context to the question, always calls the
	// model and cites no page.
	ModeAdvised Mode = "advised"
)

// ParseMode maps a query parameter to a Mode. Anything but "advised" is direct.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeAdvised)) {
		return ModeAdvised
	}
	return ModeDirect
}

// Config holds the dependencies and tuning of an Assistant.
type Config struct {
	// ChatModel answers the assembled prompt.
	ChatModel model.BaseChatModel

	// Retriever finds the chunks relevant to a question.
	Retriever rag.Retriever

	// TopK bounds the chunks retrieved per question. Defaults to 5.
	TopK int

	// MinScore is the similarity threshold. Defaults to 0.7; negative disables it.
	MinScore float32

	// Subject completes "You're assisting with providing ...".
	Subject string

	// MaxContextTokens is the estimated input budget. Lowest-ranked chunks
	// are dropped to fit. Defaults to budget.DefaultMaxContextTokens.
	MaxContextTokens int
}

// Answer is the outcome of one question.
type Answer struct {
	// Text is the reply, including the page suffix in direct mode.
	Text string
	// Page is the page of the best match, 0 when none was cited.
	Page int
	// Documents is the number of chunks placed into the prompt.
	Documents int
	// NoContext reports that retrieval found nothing in direct mode and the
	// model was not called.
	NoContext bool
}

// Assistant runs the query pipeline. It is safe for concurrent use.
type Assistant struct {
	retriever rag.Retriever
	direct    compose.Runnable[map[string]any, *schema.Message]
	advised   compose.Runnable[map[string]any, *schema.Message]
	req       rag.SearchRequest
	subject   string
	maxTokens int
}

// New compiles the direct and advised chains and returns a ready Assistant.
func New(ctx context.Context, cfg *Config) (*Assistant, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("assistant: ChatModel must not be nil")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("assistant: Retriever must not be nil")
	}

	direct, err := compileChain(ctx, directTemplate, cfg.ChatModel)
	if err != nil {
		return nil, fmt.Errorf("assistant: compile direct chain: %w", err)
	}
	advised, err := compileChain(ctx, advisedTemplate, cfg.ChatModel)
	if err != nil {
		return nil, fmt.Errorf("assistant: compile advised chain: %w", err)
	}

	req := rag.SearchRequest{TopK: cfg.TopK, MinScore: cfg.MinScore}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	switch {
	case req.MinScore == 0:
		req.MinScore = defaultMinScore
	case req.MinScore < 0:
		req.MinScore = 0
	}

	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		subject = DefaultSubject
	}
	maxTokens := cfg.MaxContextTokens
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxContextTokens
	}

	return &Assistant{
		retriever: cfg.Retriever,
		direct:    direct,
		advised:   advised,
		req:       req,
		subject:   subject,
		maxTokens: maxTokens,
	}, nil
}

// compileChain builds template -> chat model as an eino chain so global
// callback handlers observe every model call.
func compileChain(ctx context.Context, tpl string, cm model.BaseChatModel) (compose.Runnable[map[string]any, *schema.Message], error) {
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.
		AppendChatTemplate(prompt.FromMessages(schema.FString, schema.UserMessage(tpl))).
		AppendChatModel(cm)
	return chain.Compile(ctx)
}

// Ask answers question in the given mode.
func (a *Assistant) Ask(ctx context.Context, question string, mode Mode) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	log := logging.FromContext(ctx)

	docs, err := a.retriever.Retrieve(ctx, question, a.req)
	if err != nil {
		return nil, fmt.Errorf("assistant: retrieve: %w", err)
	}
	log.Debug("assistant: retrieved context",
		slog.Int("documents", len(docs)),
		slog.String("mode", string(mode)),
	)

	if len(docs) == 0 && mode != ModeAdvised {
		return &Answer{Text: NoContextMessage, NoContext: true}, nil
	}

	runner, tpl := a.direct, directTemplate
	if mode == ModeAdvised {
		runner, tpl = a.advised, advisedTemplate
	}

	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}
	fixed := budget.Estimate(tpl) + budget.Estimate(a.subject) + budget.Estimate(question)
	keep := budget.FitRanked(contents, fixed, a.maxTokens)
	if dropped := len(contents) - keep; dropped > 0 {
		log.Warn("budget: dropped retrieved chunks to fit context window",
			slog.Int("dropped", dropped),
			slog.Int("retained", keep),
			slog.Int("max_tokens", a.maxTokens),
		)
	}

	resp, err := runner.Invoke(ctx, map[string]any{
		"subject":   a.subject,
		"documents": strings.Join(contents[:keep], "\n"),
		"question":  question,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: chat model: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("assistant: chat model returned no message")
	}

	ans := &Answer{Text: resp.Content, Documents: keep}
	if mode != ModeAdvised {
		ans.Page = docs[0].Page
		ans.Text += PageSuffix(ans.Page)
	}
	return ans, nil
}

// PageSuffix is appended to direct-mode answers.
func PageSuffix(page int) string {
	return fmt.Sprintf("\nFound at page: %d of the manual", page)
}
