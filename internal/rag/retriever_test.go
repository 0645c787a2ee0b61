package rag

import (
	"context"
	"errors"
	"testing"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

// fakeStore returns a fixed result set regardless of the request, the way a
// store that ignores limits and thresholds would.
type fakeStore struct {
	results []Document
	err     error
	gotReq  SearchRequest
}

func (f *fakeStore) Add(context.Context, []Document, [][]float32) error { return nil }

func (f *fakeStore) Search(_ context.Context, _ []float32, req SearchRequest) ([]Document, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Document, len(f.results))
	copy(out, f.results)
	return out, nil
}

func (f *fakeStore) Count(context.Context) (int, error) { return len(f.results), nil }
func (f *fakeStore) Close() error                        { return nil }

func TestNewRetriever_NilArgs(t *testing.T) {
	t.Parallel()
	if _, err := NewRetriever(nil, &fakeStore{}); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewRetriever(&fakeEmbedder{}, nil); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestRetrieve_EnforcesBoundThresholdAndOrder(t *testing.T) {
	t.Parallel()

	store := &fakeStore{results: []Document{
		{ID: "a", Score: 0.71, Page: 1},
		{ID: "b", Score: 0.95, Page: 2},
		{ID: "c", Score: 0.40, Page: 3},
		{ID: "d", Score: 0.88, Page: 4},
		{ID: "e", Score: 0.69, Page: 5},
		{ID: "f", Score: 0.80, Page: 6},
	}}
	r, err := NewRetriever(&fakeEmbedder{vec: []float32{1, 0}}, store)
	if err != nil {
		t.Fatal(err)
	}

	req := SearchRequest{TopK: 3, MinScore: 0.7}
	docs, err := r.Retrieve(context.Background(), "how many dice?", req)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.gotReq != req {
		t.Errorf("store received %+v, want %+v", store.gotReq, req)
	}

	want := []string{"b", "d", "f"}
	if len(docs) != len(want) {
		t.Fatalf("got %d docs, want %d", len(docs), len(want))
	}
	for i, id := range want {
		if docs[i].ID != id {
			t.Errorf("docs[%d].ID = %q, want %q", i, docs[i].ID, id)
		}
		if docs[i].Score < req.MinScore {
			t.Errorf("docs[%d] score %v below threshold", i, docs[i].Score)
		}
	}
}

func TestRetrieve_ZeroTopK(t *testing.T) {
	t.Parallel()
	r, _ := NewRetriever(&fakeEmbedder{vec: []float32{1}}, &fakeStore{results: []Document{{ID: "a", Score: 1}}})
	docs, err := r.Retrieve(context.Background(), "q", SearchRequest{TopK: 0})
	if err != nil || len(docs) != 0 {
		t.Fatalf("expected no docs and no error, got %v, %v", docs, err)
	}
}

func TestRetrieve_Errors(t *testing.T) {
	t.Parallel()

	embedErr := errors.New("embed down")
	r, _ := NewRetriever(&fakeEmbedder{err: embedErr}, &fakeStore{})
	if _, err := r.Retrieve(context.Background(), "q", SearchRequest{TopK: 5}); !errors.Is(err, embedErr) {
		t.Errorf("expected wrapped embed error, got %v", err)
	}

	searchErr := errors.New("search down")
	r, _ = NewRetriever(&fakeEmbedder{vec: []float32{1}}, &fakeStore{err: searchErr})
	if _, err := r.Retrieve(context.Background(), "q", SearchRequest{TopK: 5}); !errors.Is(err, searchErr) {
		t.Errorf("expected wrapped search error, got %v", err)
	}

	r, _ = NewRetriever(&fakeEmbedder{}, &fakeStore{})
	if _, err := r.Retrieve(context.Background(), "q", SearchRequest{TopK: 5}); err == nil {
		t.Error("expected error for empty embedding")
	}
}
