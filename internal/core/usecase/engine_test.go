package usecase

import (
	"context"
	"testing"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
)

type fakeSessionStore struct {
	turns   map[string][]domain.Turn
	appends int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{turns: make(map[string][]domain.Turn)}
}

func (f *fakeSessionStore) History(_ context.Context, sessionID string) ([]domain.Turn, error) {
	return f.turns[sessionID], nil
}

func (f *fakeSessionStore) Append(_ context.Context, sessionID string, turns ...domain.Turn) error {
	f.appends++
	f.turns[sessionID] = append(f.turns[sessionID], turns...)
	return nil
}

func engineFixture(vectorDB *fakeVectorIndex, embedder *fakeEmbedder, completer *scriptedCompleter, sessions *fakeSessionStore, source *fakeSource) *Engine {
	return NewEngine(
		EngineConfig{ManualsPath: "/corpus/manuals", OnlineResourcesPath: "/corpus/online"},
		NewIndexer(vectorDB, embedder, &fakeChunker{}, source),
		embedder,
		completer,
		&fakeSearcher{},
		sessions,
	)
}

func TestQueryBeforeInitializeFailsFast(t *testing.T) {
	engine := engineFixture(newFakeVectorIndex(), &fakeEmbedder{}, &scriptedCompleter{}, newFakeSessionStore(), &fakeSource{})

	_, err := engine.Query(context.Background(), "No start in the cold", "")
	if !domain.IsKind(err, domain.ErrNotInitialized) {
		t.Fatalf("expected not-initialized error, got %v", err)
	}
}

func TestInitializeWarmStartMakesNoEmbeddingCalls(t *testing.T) {
	vectorDB := newFakeVectorIndex()
	vectorDB.collections[domain.ManualsCollection] = true
	vectorDB.collections[domain.OnlineResourcesCollection] = true
	embedder := &fakeEmbedder{}
	engine := engineFixture(vectorDB, embedder, &scriptedCompleter{}, newFakeSessionStore(), &fakeSource{})

	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if embedder.calls != 0 {
		t.Fatalf("warm start must not embed, got %d calls", embedder.calls)
	}
	if !engine.Ready() {
		t.Fatalf("engine must report ready")
	}
}

func TestInitializeColdStartBuildsMissingCollection(t *testing.T) {
	vectorDB := newFakeVectorIndex()
	vectorDB.collections[domain.ManualsCollection] = true
	embedder := &fakeEmbedder{}
	source := &fakeSource{dirDocs: []domain.Document{
		{Text: "forum post", Metadata: domain.DocumentMetadata{FilePath: "/corpus/online/post.html"}},
	}}
	engine := engineFixture(vectorDB, embedder, &scriptedCompleter{}, newFakeSessionStore(), source)

	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !vectorDB.collections[domain.OnlineResourcesCollection] {
		t.Fatalf("missing collection must be created")
	}
	if embedder.calls == 0 {
		t.Fatalf("cold start must embed the corpus")
	}
}

func TestInitializeEmptyCorpusAborts(t *testing.T) {
	engine := engineFixture(newFakeVectorIndex(), &fakeEmbedder{}, &scriptedCompleter{}, newFakeSessionStore(), &fakeSource{})

	err := engine.Initialize(context.Background())
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if engine.Ready() {
		t.Fatalf("engine must not report ready after failed initialize")
	}
}

func TestQueryGeneratesSessionIDAndAppendsTurns(t *testing.T) {
	vectorDB := newFakeVectorIndex()
	vectorDB.collections[domain.ManualsCollection] = true
	vectorDB.collections[domain.OnlineResourcesCollection] = true
	sessions := newFakeSessionStore()
	completer := &scriptedCompleter{responses: []string{"Answer: " + RefusalMessage}}
	engine := engineFixture(vectorDB, &fakeEmbedder{}, completer, sessions, &fakeSource{})

	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	result, err := engine.Query(context.Background(), "Hello", "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.SessionID == "" {
		t.Fatalf("expected generated session id")
	}
	turns := sessions.turns[result.SessionID]
	if len(turns) != 2 {
		t.Fatalf("expected user+assistant turns appended, got %d", len(turns))
	}
	if turns[0].Role != domain.RoleUser || turns[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected turn roles: %+v", turns)
	}
}

func TestQueryFeedsSessionHistoryToAgent(t *testing.T) {
	vectorDB := newFakeVectorIndex()
	vectorDB.collections[domain.ManualsCollection] = true
	vectorDB.collections[domain.OnlineResourcesCollection] = true
	sessions := newFakeSessionStore()
	sessions.turns["s-1"] = []domain.Turn{
		{Role: domain.RoleUser, Content: "My 2014 wagon misfires"},
		{Role: domain.RoleAssistant, Content: "Which cylinder reports the fault?"},
	}
	completer := &scriptedCompleter{responses: []string{"Answer: " + RefusalMessage}}
	engine := engineFixture(vectorDB, &fakeEmbedder{}, completer, sessions, &fakeSource{})

	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	result, err := engine.Query(context.Background(), "Cylinder three", "s-1")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.SessionID != "s-1" {
		t.Fatalf("session id must be echoed, got %q", result.SessionID)
	}
	if len(completer.lastTurns) != 3 {
		t.Fatalf("expected history plus question, got %d turns", len(completer.lastTurns))
	}
	if completer.lastTurns[0].Content != "My 2014 wagon misfires" {
		t.Fatalf("history must lead the conversation: %+v", completer.lastTurns[0])
	}
	if len(sessions.turns["s-1"]) != 4 {
		t.Fatalf("turns must append, never rewrite: %d", len(sessions.turns["s-1"]))
	}
}

func TestQueryRejectsEmptyQuestion(t *testing.T) {
	vectorDB := newFakeVectorIndex()
	vectorDB.collections[domain.ManualsCollection] = true
	vectorDB.collections[domain.OnlineResourcesCollection] = true
	engine := engineFixture(vectorDB, &fakeEmbedder{}, &scriptedCompleter{}, newFakeSessionStore(), &fakeSource{})

	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	_, err := engine.Query(context.Background(), "  ", "s-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestAddDocumentsTargetsManualsCollection(t *testing.T) {
	vectorDB := newFakeVectorIndex()
	vectorDB.collections[domain.ManualsCollection] = true
	vectorDB.collections[domain.OnlineResourcesCollection] = true
	engine := engineFixture(vectorDB, &fakeEmbedder{}, &scriptedCompleter{}, newFakeSessionStore(), &fakeSource{})

	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	report, err := engine.AddDocuments(context.Background(), []domain.Document{
		{Text: "new bulletin", Metadata: domain.DocumentMetadata{FileName: "tsb-42.txt"}},
	})
	if err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}
	if report.Indexed != 1 {
		t.Fatalf("expected 1 indexed, got %d", report.Indexed)
	}
	if len(vectorDB.upserted[domain.ManualsCollection]) == 0 {
		t.Fatalf("documents must land in the manuals collection")
	}
	if len(vectorDB.upserted[domain.OnlineResourcesCollection]) != 0 {
		t.Fatalf("live upload must never touch online_resources")
	}
}

func TestHistoryRequiresSessionID(t *testing.T) {
	engine := engineFixture(newFakeVectorIndex(), &fakeEmbedder{}, &scriptedCompleter{}, newFakeSessionStore(), &fakeSource{})

	_, err := engine.History(context.Background(), "")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestListManualsBeforeInitializeFailsFast(t *testing.T) {
	engine := engineFixture(newFakeVectorIndex(), &fakeEmbedder{}, &scriptedCompleter{}, newFakeSessionStore(), &fakeSource{})

	_, err := engine.ListManuals(context.Background())
	if !domain.IsKind(err, domain.ErrNotInitialized) {
		t.Fatalf("expected not-initialized error, got %v", err)
	}
}
