package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/ragmanual-go/internal/rag"
)

// fakeChatModel records the messages it receives and replies with a fixed answer.
type fakeChatModel struct {
	mu     sync.Mutex
	reply  string
	err    error
	inputs [][]*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeChatModel) lastPrompt(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		t.Fatal("chat model was never called")
	}
	msgs := f.inputs[len(f.inputs)-1]
	if len(msgs) != 1 || msgs[0].Role != schema.User {
		t.Fatalf("expected a single user message, got %+v", msgs)
	}
	return msgs[0].Content
}

// fakeRetriever returns canned documents and records the request it saw.
type fakeRetriever struct {
	docs []rag.Document
	err  error
	req  rag.SearchRequest
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string, req rag.SearchRequest) ([]rag.Document, error) {
	r.req = req
	return r.docs, r.err
}

func newTestAssistant(t *testing.T, cm *fakeChatModel, r *fakeRetriever, cfg Config) *Assistant {
	t.Helper()
	cfg.ChatModel = cm
	cfg.Retriever = r
	a, err := New(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_NilDependencies(t *testing.T) {
	t.Parallel()
	if _, err := New(context.Background(), &Config{Retriever: &fakeRetriever{}}); err == nil {
		t.Error("expected error for nil chat model")
	}
	if _, err := New(context.Background(), &Config{ChatModel: &fakeChatModel{}}); err == nil {
		t.Error("expected error for nil retriever")
	}
}

func TestAsk_NoContextSkipsModel(t *testing.T) {
	t.Parallel()
	cm := &fakeChatModel{reply: "should not be used"}
	a := newTestAssistant(t, cm, &fakeRetriever{}, Config{})

	ans, err := a.Ask(context.Background(), "How many dice does a hero roll?", ModeDirect)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Text != NoContextMessage || !ans.NoContext {
		t.Errorf("answer = %+v", ans)
	}
	if cm.calls() != 0 {
		t.Errorf("chat model called %d times, want 0", cm.calls())
	}
}

func TestAsk_DirectAppendsTopPage(t *testing.T) {
	t.Parallel()
	cm := &fakeChatModel{reply: "Each player takes two activation cards."}
	r := &fakeRetriever{docs: []rag.Document{
		{Content: "Activation cards are dealt at the start of each season.", Page: 12, Score: 0.91},
		{Content: "Seasons advance after every round.", Page: 7, Score: 0.78},
	}}
	a := newTestAssistant(t, cm, r, Config{})

	ans, err := a.Ask(context.Background(), "  How are activation cards dealt?  ", ModeDirect)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	want := "Each player takes two activation cards.\nFound at page: 12 of the manual"
	if ans.Text != want {
		t.Errorf("text = %q, want %q", ans.Text, want)
	}
	if ans.Page != 12 || ans.Documents != 2 || ans.NoContext {
		t.Errorf("answer = %+v", ans)
	}

	p := cm.lastPrompt(t)
	for _, s := range []string{
		"You're assisting with providing " + DefaultSubject + ".",
		"DOCUMENTS:\nActivation cards are dealt at the start of each season.\nSeasons advance after every round.\n\nQUESTION:\nHow are activation cards dealt?",
		"If unsure, simply state that you don't know.",
	} {
		if !strings.Contains(p, s) {
			t.Errorf("prompt missing %q\n---\n%s", s, p)
		}
	}
	if strings.Contains(p, "{") {
		t.Errorf("prompt has unfilled placeholders:\n%s", p)
	}
}

func TestAsk_DefaultsAndOverrides(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		cfg      Config
		wantTopK int
		wantMin  float32
	}{
		{name: "defaults", cfg: Config{}, wantTopK: 5, wantMin: 0.7},
		{name: "explicit", cfg: Config{TopK: 3, MinScore: 0.5}, wantTopK: 3, wantMin: 0.5},
		{name: "threshold disabled", cfg: Config{MinScore: -1}, wantTopK: 5, wantMin: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := &fakeRetriever{}
			a := newTestAssistant(t, &fakeChatModel{}, r, tc.cfg)
			if _, err := a.Ask(context.Background(), "q", ModeDirect); err != nil {
				t.Fatal(err)
			}
			if r.req.TopK != tc.wantTopK || r.req.MinScore != tc.wantMin {
				t.Errorf("request = %+v, want topK %d minScore %v", r.req, tc.wantTopK, tc.wantMin)
			}
		})
	}
}

func TestAsk_CustomSubject(t *testing.T) {
	t.Parallel()
	cm := &fakeChatModel{reply: "ok"}
	r := &fakeRetriever{docs: []rag.Document{{Content: "ctx", Page: 1}}}
	a := newTestAssistant(t, cm, r, Config{Subject: "the assembly instructions of a bookshelf"})

	if _, err := a.Ask(context.Background(), "Which screw first?", ModeDirect); err != nil {
		t.Fatal(err)
	}
	if p := cm.lastPrompt(t); !strings.HasPrefix(p, "You're assisting with providing the assembly instructions of a bookshelf.") {
		t.Errorf("prompt = %q", p)
	}
}

func TestAsk_BraceInQuestionIsLiteral(t *testing.T) {
	t.Parallel()
	cm := &fakeChatModel{reply: "ok"}
	r := &fakeRetriever{docs: []rag.Document{{Content: "Cards marked {X} are wild.", Page: 4}}}
	a := newTestAssistant(t, cm, r, Config{})

	if _, err := a.Ask(context.Background(), "What does {X} mean?", ModeDirect); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	p := cm.lastPrompt(t)
	if !strings.Contains(p, "Cards marked {X} are wild.") || !strings.Contains(p, "What does {X} mean?") {
		t.Errorf("braces were not passed through:\n%s", p)
	}
}

func TestAsk_BudgetKeepsTopDocument(t *testing.T) {
	t.Parallel()
	cm := &fakeChatModel{reply: "ok"}
	big := strings.Repeat("x", 4000)
	r := &fakeRetriever{docs: []rag.Document{
		{Content: "best " + big, Page: 2},
		{Content: "second " + big, Page: 3},
		{Content: "third " + big, Page: 4},
	}}
	a := newTestAssistant(t, cm, r, Config{MaxContextTokens: 200})

	ans, err := a.Ask(context.Background(), "q", ModeDirect)
	if err != nil {
		t.Fatal(err)
	}
	if ans.Documents != 1 || ans.Page != 2 {
		t.Errorf("answer = %+v, want only the top document kept", ans)
	}
	p := cm.lastPrompt(t)
	if !strings.Contains(p, "best ") || strings.Contains(p, "second ") {
		t.Error("budget trimmed the wrong end")
	}
}

func TestAsk_Advised(t *testing.T) {
	t.Parallel()

	t.Run("with context", func(t *testing.T) {
		t.Parallel()
		cm := &fakeChatModel{reply: "Morale is checked after combat."}
		r := &fakeRetriever{docs: []rag.Document{{Content: "Routed units check morale.", Page: 21}}}
		a := newTestAssistant(t, cm, r, Config{})

		ans, err := a.Ask(context.Background(), "When is morale checked?", ModeAdvised)
		if err != nil {
			t.Fatal(err)
		}
		if ans.Text != "Morale is checked after combat." || ans.Page != 0 {
			t.Errorf("answer = %+v, want no page suffix", ans)
		}
		p := cm.lastPrompt(t)
		if !strings.HasPrefix(p, "When is morale checked?\nContext information is below") {
			t.Errorf("advised prompt should start with the question:\n%s", p)
		}
		if !strings.Contains(p, "---------------------\nRouted units check morale.\n---------------------") {
			t.Errorf("advised prompt missing fenced context:\n%s", p)
		}
	})

	t.Run("without context still calls model", func(t *testing.T) {
		t.Parallel()
		cm := &fakeChatModel{reply: "I can't answer that."}
		a := newTestAssistant(t, cm, &fakeRetriever{}, Config{})

		ans, err := a.Ask(context.Background(), "Who wins ties?", ModeAdvised)
		if err != nil {
			t.Fatal(err)
		}
		if ans.NoContext || ans.Text != "I can't answer that." || cm.calls() != 1 {
			t.Errorf("answer = %+v, calls = %d", ans, cm.calls())
		}
	})
}

func TestAsk_EmptyQuestion(t *testing.T) {
	t.Parallel()
	a := newTestAssistant(t, &fakeChatModel{}, &fakeRetriever{}, Config{})
	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := a.Ask(context.Background(), q, ModeDirect); !errors.Is(err, ErrEmptyQuestion) {
			t.Errorf("Ask(%q) err = %v, want ErrEmptyQuestion", q, err)
		}
	}
}

func TestAsk_Errors(t *testing.T) {
	t.Parallel()

	t.Run("retriever", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("qdrant unreachable")
		a := newTestAssistant(t, &fakeChatModel{}, &fakeRetriever{err: boom}, Config{})
		if _, err := a.Ask(context.Background(), "q", ModeDirect); !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapped retriever error", err)
		}
	})

	t.Run("chat model", func(t *testing.T) {
		t.Parallel()
		cm := &fakeChatModel{err: errors.New("rate limited")}
		r := &fakeRetriever{docs: []rag.Document{{Content: "ctx", Page: 1}}}
		a := newTestAssistant(t, cm, r, Config{})
		_, err := a.Ask(context.Background(), "q", ModeDirect)
		if err == nil || !strings.Contains(err.Error(), "rate limited") {
			t.Errorf("err = %v, want chat model failure", err)
		}
	})
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	tests := map[string]Mode{
		"":         ModeDirect,
		"direct":   ModeDirect,
		"advised":  ModeAdvised,
		" Advised": ModeAdvised,
		"other":    ModeDirect,
	}
	for in, want := range tests {
		if got := ParseMode(in); got != want {
			t.Errorf("ParseMode(%q) = %q, want %q", in, got, want)
		}
	}
}
