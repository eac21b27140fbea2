package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
	"github.com/kailas-cloud/flowdex/internal/domain/search/filter"
	"github.com/kailas-cloud/flowdex/internal/domain/search/mode"
	"github.com/kailas-cloud/flowdex/internal/domain/search/request"
	"github.com/kailas-cloud/flowdex/internal/domain/search/result"
)

// --- Fakes ---

// vocabEmbedder embeds text as a bag of known words, so texts sharing
// vocabulary point in similar directions and unrelated texts are zero vectors.
type vocabEmbedder struct {
	vocab []string
	calls atomic.Int64
}

func newVocabEmbedder() *vocabEmbedder {
	return &vocabEmbedder{vocab: []string{"gmail", "slack", "telegram", "sheets", "notification", "invoice"}}
}

func (e *vocabEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls.Add(1)
	text = strings.ToLower(text)
	vec := make([]float32, len(e.vocab))
	for i, w := range e.vocab {
		if strings.Contains(text, w) {
			vec[i] = 1
		}
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

type failingEmbedder struct{ calls atomic.Int64 }

func (e *failingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls.Add(1)
	return domain.EmbeddingResult{}, fmt.Errorf("provider down: %w", domain.ErrEmbeddingProviderError)
}

// --- Helpers ---

func newCatalog(t *testing.T, raws ...document.Raw) *corpus.Catalog {
	t.Helper()
	c := corpus.NewCatalog(nil)
	report := c.Load(raws)
	if len(report.Rejected) != 0 {
		t.Fatalf("unexpected rejections: %+v", report.Rejected)
	}
	return c
}

func rawDoc(id, title, desc string, services ...string) document.Raw {
	return document.Raw{SourceID: id, Title: title, Description: desc, Services: services, Category: "general"}
}

func mustRequest(t *testing.T, text string, f filter.Filters, limit int) *request.Request {
	t.Helper()
	req, err := request.New(text, f, limit, true)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func noFilters() filter.Filters { return filter.Filters{} }

func mustFilters(t *testing.T, services []string, category, complexity string) filter.Filters {
	t.Helper()
	f, err := filter.New(services, category, complexity)
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	return f
}

func sourceIDs(rs []result.Result) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].Document().SourceID()
	}
	return out
}

func tenDocs() []document.Raw {
	return []document.Raw{
		rawDoc("w0", "Gmail to Slack Notification", "Post new Gmail emails to a Slack channel", "Gmail", "Slack"),
		rawDoc("w1", "Telegram Order Bot", "Answer order questions in Telegram", "Telegram"),
		rawDoc("w2", "Sheets Invoice Tracker", "Append invoices to Google Sheets", "Google Sheets"),
		rawDoc("w3", "Slack Standup Reminder", "Remind the team in Slack every morning", "Slack"),
		rawDoc("w4", "Telegram Alert Relay", "Forward monitoring alerts to a Telegram group", "Telegram", "HTTP Request"),
		rawDoc("w5", "CRM Lead Sync", "Sync new leads between CRMs", "HubSpot", "Salesforce"),
		rawDoc("w6", "Invoice Reminder Emails", "Email customers about overdue invoices", "Gmail"),
		rawDoc("w7", "RSS to Discord", "Post feed items to Discord", "RSS", "Discord"),
		rawDoc("w8", "Calendar Digest", "Daily digest of calendar events", "Google Calendar"),
		rawDoc("w9", "Support Ticket Triage", "Classify incoming support tickets", "Zendesk"),
	}
}

// --- Scenarios ---

func TestSearch_ExactTitleRanksFirst(t *testing.T) {
	tests := []struct {
		name string
		doc  document.Raw
	}{
		{"catalog record", tenDocs()[0]},
		{"title only", rawDoc("w0", "Gmail to Slack Notification", "Runs on a schedule")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCatalog(t,
				tt.doc,
				rawDoc("tg", "Telegram Order Bot", "Answer order questions in Telegram", "Telegram"),
				rawDoc("sheets", "Sheets Backup", "Copy rows to a backup spreadsheet", "Google Sheets"),
			)
			emb := newVocabEmbedder()
			svc := New(c, emb, emb, Config{})

			resp, err := svc.Search(context.Background(), mustRequest(t, "gmail slack notification", noFilters(), 10))
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(resp.Results) == 0 || resp.Results[0].Document().SourceID() != "w0" {
				t.Fatalf("expected w0 first, got %v", sourceIDs(resp.Results))
			}
			b := resp.Results[0].Breakdown()
			if b == nil || b.LexicalScore < 0.99 {
				t.Errorf("lexical score = %+v, want close to 1.0", b)
			}
			if resp.Mode != mode.Ranked {
				t.Errorf("mode = %s, want ranked", resp.Mode)
			}
		})
	}
}

func TestSearch_EmptyQueryBrowses(t *testing.T) {
	c := newCatalog(t, tenDocs()...)
	emb := newVocabEmbedder()
	svc := New(c, emb, emb, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "", noFilters(), 5))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"w0", "w1", "w2", "w3", "w4"}
	if got := sourceIDs(resp.Results); !reflect.DeepEqual(got, want) {
		t.Errorf("browse = %v, want %v", got, want)
	}
	for i := range resp.Results {
		if resp.Results[i].Score() != 0 {
			t.Errorf("browse result %d score = %f, want 0", i, resp.Results[i].Score())
		}
	}
	if resp.Mode != mode.Browse || resp.Degraded {
		t.Errorf("mode = %s degraded = %v", resp.Mode, resp.Degraded)
	}
	if emb.calls.Load() != 0 {
		t.Errorf("browse mode must not embed, got %d calls", emb.calls.Load())
	}
}

func TestSearch_ServiceFilterRestrictsResults(t *testing.T) {
	c := newCatalog(t, tenDocs()...)
	emb := newVocabEmbedder()
	svc := New(c, emb, emb, Config{})
	f := mustFilters(t, []string{"Telegram"}, "", "")

	for _, q := range []string{"", "telegram", "gmail slack notification", "invoice reminder", "zzzz"} {
		resp, err := svc.Search(context.Background(), mustRequest(t, q, f, 10))
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if len(resp.Results) > 2 {
			t.Errorf("query %q returned %d results, want at most 2", q, len(resp.Results))
		}
		for _, id := range sourceIDs(resp.Results) {
			if id != "w1" && id != "w4" {
				t.Errorf("query %q returned %s which does not list Telegram", q, id)
			}
		}
	}
}

func TestSearch_ProviderDownFallsBackToLexical(t *testing.T) {
	c := newCatalog(t, tenDocs()...)
	emb := &failingEmbedder{}
	svc := New(c, emb, emb, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "slack reminder", noFilters(), 10))
	if err != nil {
		t.Fatalf("Search must not fail when the provider is down: %v", err)
	}
	if !resp.Degraded {
		t.Error("expected degraded response")
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected lexical results")
	}
	prev := math.Inf(1)
	for i := range resp.Results {
		b := resp.Results[i].Breakdown()
		if b.SemanticScore != 0 || b.SemanticRank.IsRanked() {
			t.Errorf("result %d has semantic signal %+v", i, b)
		}
		if b.LexicalScore > prev {
			t.Errorf("results not ordered by lexical score: %f after %f", b.LexicalScore, prev)
		}
		prev = b.LexicalScore
		if math.Abs(resp.Results[i].Score()-b.LexicalScore*0.6) > 1e-9 {
			t.Errorf("combined = %f, want %f", resp.Results[i].Score(), b.LexicalScore*0.6)
		}
	}
}

func TestSearch_ZeroEmbeddingNeverScores(t *testing.T) {
	// "Calendar Digest" shares no vocabulary with the embedder, so its vector is all zeros.
	c := newCatalog(t, tenDocs()...)
	emb := newVocabEmbedder()
	svc := New(c, emb, emb, Config{Lexical: LexicalConfig{Threshold: 0.99}})

	for _, q := range []string{"gmail", "calendar digest gmail", "slack"} {
		resp, err := svc.Search(context.Background(), mustRequest(t, q, noFilters(), 100))
		if err != nil {
			t.Fatal(err)
		}
		for i := range resp.Results {
			if resp.Results[i].Document().SourceID() != "w8" {
				continue
			}
			if b := resp.Results[i].Breakdown(); b.SemanticScore != 0 || b.SemanticRank.IsRanked() {
				t.Errorf("zero-vector document got semantic signal %+v for %q", b, q)
			}
		}
	}
}

// --- Properties ---

func TestSearch_ResultCountNeverExceedsLimit(t *testing.T) {
	c := newCatalog(t, tenDocs()...)
	emb := newVocabEmbedder()
	svc := New(c, emb, emb, Config{})

	for _, limit := range []int{1, 2, 3, 7, 10} {
		for _, q := range []string{"slack", "telegram gmail invoice", "reminder"} {
			resp, err := svc.Search(context.Background(), mustRequest(t, q, noFilters(), limit))
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.Results) > limit {
				t.Errorf("query %q limit %d returned %d", q, limit, len(resp.Results))
			}
		}
	}
}

func TestSearch_CombinedScoreFormula(t *testing.T) {
	c := newCatalog(t, tenDocs()...)
	emb := newVocabEmbedder()
	svc := New(c, emb, emb, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "telegram alerts", noFilters(), 100))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected results")
	}
	sawSemanticOnly := false
	for i := range resp.Results {
		r := &resp.Results[i]
		b := r.Breakdown()
		want := b.LexicalScore*0.6 + b.SemanticScore*0.4
		if math.Abs(r.Score()-want) > 1e-9 {
			t.Errorf("%s: combined = %.12f, want %.12f", r.Document().SourceID(), r.Score(), want)
		}
		if b.LexicalRank.IsRanked() && !b.SemanticRank.IsRanked() && b.SemanticScore != 0 {
			t.Errorf("%s: lexical-only candidate has semantic score %f", r.Document().SourceID(), b.SemanticScore)
		}
		if !b.LexicalRank.IsRanked() {
			sawSemanticOnly = true
			if b.LexicalScore != 0 {
				t.Errorf("%s: semantic-only candidate has lexical score %f", r.Document().SourceID(), b.LexicalScore)
			}
		}
	}
	if !sawSemanticOnly {
		t.Log("no semantic-only candidates in this corpus")
	}
}

func TestSearch_Deterministic(t *testing.T) {
	c := newCatalog(t, tenDocs()...)
	emb := newVocabEmbedder()
	svc := New(c, emb, emb, Config{})

	req := mustRequest(t, "slack telegram reminder", noFilters(), 10)
	first, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		again, err := svc.Search(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Results, again.Results) {
			t.Fatalf("results differ between runs:\n%v\n%v", sourceIDs(first.Results), sourceIDs(again.Results))
		}
	}
}

func TestSearch_FilterMonotonic(t *testing.T) {
	c := newCatalog(t, tenDocs()...)
	emb := newVocabEmbedder()
	svc := New(c, emb, emb, Config{})

	filters := []filter.Filters{
		mustFilters(t, []string{"slack"}, "", ""),
		mustFilters(t, []string{"gmail", "telegram"}, "", ""),
		mustFilters(t, nil, "general", ""),
		mustFilters(t, nil, "other", ""),
		mustFilters(t, nil, "", "unknown"),
	}
	for _, q := range []string{"slack", "invoice gmail", "telegram alert"} {
		base, err := svc.Search(context.Background(), mustRequest(t, q, noFilters(), request.MaxLimit))
		if err != nil {
			t.Fatal(err)
		}
		all := make(map[string]bool)
		for _, id := range sourceIDs(base.Results) {
			all[id] = true
		}
		for _, f := range filters {
			got, err := svc.Search(context.Background(), mustRequest(t, q, f, request.MaxLimit))
			if err != nil {
				t.Fatal(err)
			}
			for _, id := range sourceIDs(got.Results) {
				if !all[id] {
					t.Errorf("query %q filters %+v: %s not in unfiltered results", q, f, id)
				}
			}
		}
	}
}

func TestSearch_LimitClamped(t *testing.T) {
	raws := make([]document.Raw, 150)
	for i := range raws {
		raws[i] = rawDoc(fmt.Sprintf("w%03d", i), "Slack digest", "Post a digest to Slack", "Slack")
	}
	c := newCatalog(t, raws...)
	svc := New(c, nil, nil, Config{Lexical: LexicalConfig{PoolSize: 200}})

	tests := []struct {
		limit int
		want  int
	}{
		{0, request.DefaultLimit},
		{-4, request.DefaultLimit},
		{500, request.MaxLimit},
		{3, 3},
	}
	for _, tt := range tests {
		for _, q := range []string{"", "slack digest"} {
			resp, err := svc.Search(context.Background(), mustRequest(t, q, noFilters(), tt.limit))
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.Results) != tt.want {
				t.Errorf("query %q limit %d: got %d results, want %d", q, tt.limit, len(resp.Results), tt.want)
			}
		}
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	c := newCatalog(t,
		rawDoc("b", "Slack digest", "Post a digest to Slack", "Slack"),
		rawDoc("a", "Slack digest", "Post a digest to Slack", "Slack"),
		rawDoc("c", "Slack digest", "Post a digest to Slack", "Slack"),
	)
	emb := newVocabEmbedder()
	svc := New(c, emb, emb, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "slack digest", noFilters(), 10))
	if err != nil {
		t.Fatal(err)
	}
	if got := sourceIDs(resp.Results); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("order = %v, want insertion order", got)
	}
}

func TestSearch_EmptyCorpus(t *testing.T) {
	svc := New(corpus.NewCatalog(nil), nil, nil, Config{})
	for _, q := range []string{"", "anything"} {
		resp, err := svc.Search(context.Background(), mustRequest(t, q, noFilters(), 10))
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if len(resp.Results) != 0 {
			t.Errorf("Search(%q) on empty corpus returned %d results", q, len(resp.Results))
		}
	}
}

func TestSearch_NoEmbedderIsDegraded(t *testing.T) {
	c := newCatalog(t, tenDocs()...)
	svc := New(c, nil, nil, Config{})
	resp, err := svc.Search(context.Background(), mustRequest(t, "slack", noFilters(), 10))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Degraded {
		t.Error("expected degraded without an embedder")
	}
}

func TestSearch_DocumentEmbeddingsMemoized(t *testing.T) {
	c := newCatalog(t, tenDocs()...)
	queryEmb := newVocabEmbedder()
	docEmb := newVocabEmbedder()
	svc := New(c, queryEmb, docEmb, Config{})

	for range 3 {
		if _, err := svc.Search(context.Background(), mustRequest(t, "slack", noFilters(), 10)); err != nil {
			t.Fatal(err)
		}
	}
	if got := docEmb.calls.Load(); got != 10 {
		t.Errorf("document embedder calls = %d, want 10 (once per document)", got)
	}
	if got := queryEmb.calls.Load(); got != 3 {
		t.Errorf("query embedder calls = %d, want 3", got)
	}
}

func TestSearch_NilSnapshot(t *testing.T) {
	svc := New(nilCorpus{}, nil, nil, Config{})
	_, err := svc.Search(context.Background(), mustRequest(t, "x", noFilters(), 10))
	if !errors.Is(err, domain.ErrCorpusNotLoaded) {
		t.Errorf("expected ErrCorpusNotLoaded, got %v", err)
	}
}

type nilCorpus struct{}

func (nilCorpus) Snapshot() *corpus.Store { return nil }
