package facts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// mockFactRepo はテスト用のFactRepository実装。
type mockFactRepo struct {
	countFunc    func(ctx context.Context, since time.Time) (int, error)
	activateFunc func(ctx context.Context, fact *model.Fact) error
	activated    []*model.Fact
}

func (m *mockFactRepo) FindActive(ctx context.Context) (*model.Fact, error) {
	return nil, nil
}

func (m *mockFactRepo) ActivateNew(ctx context.Context, fact *model.Fact) error {
	if m.activateFunc != nil {
		if err := m.activateFunc(ctx, fact); err != nil {
			return err
		}
	}
	m.activated = append(m.activated, fact)
	return nil
}

func (m *mockFactRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, since)
	}
	return 0, nil
}

// mockGenerator はテスト用のGenerator実装。
type mockGenerator struct {
	generateFunc func(ctx context.Context, category model.FactCategory) (*model.Fact, error)
	calls        int
}

func (m *mockGenerator) Generate(ctx context.Context, category model.FactCategory) (*model.Fact, error) {
	m.calls++
	return m.generateFunc(ctx, category)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestRotateDaily_GeneratesAndActivates は豆知識が生成・アクティブ化されることを検証する。
func TestRotateDaily_GeneratesAndActivates(t *testing.T) {
	repo := &mockFactRepo{}
	primary := &mockGenerator{
		generateFunc: func(ctx context.Context, category model.FactCategory) (*model.Fact, error) {
			return &model.Fact{Text: "generated fact", Category: category, Source: "AI Generated"}, nil
		},
	}

	svc := NewService(repo, primary, testLogger())

	if err := svc.RotateDaily(context.Background()); err != nil {
		t.Fatalf("RotateDaily() error = %v", err)
	}

	if len(repo.activated) != 1 {
		t.Fatalf("activated = %d facts, want 1", len(repo.activated))
	}
	if repo.activated[0].Text != "generated fact" {
		t.Errorf("Text = %q, want generated fact", repo.activated[0].Text)
	}
	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls)
	}
}

// TestRotateDaily_Idempotent は当日分が既にある場合にスキップされることを検証する。
func TestRotateDaily_Idempotent(t *testing.T) {
	repo := &mockFactRepo{
		countFunc: func(ctx context.Context, since time.Time) (int, error) {
			return 1, nil
		},
	}
	primary := &mockGenerator{
		generateFunc: func(ctx context.Context, category model.FactCategory) (*model.Fact, error) {
			return &model.Fact{Text: "fact"}, nil
		},
	}

	svc := NewService(repo, primary, testLogger())

	if err := svc.RotateDaily(context.Background()); err != nil {
		t.Fatalf("RotateDaily() error = %v", err)
	}

	if len(repo.activated) != 0 {
		t.Errorf("activated = %d facts, want 0 (already generated today)", len(repo.activated))
	}
	if primary.calls != 0 {
		t.Errorf("primary calls = %d, want 0", primary.calls)
	}
}

// TestRotateDaily_FallsBackOnGeneratorFailure は生成失敗時に組み込みDBが使われることを検証する。
func TestRotateDaily_FallsBackOnGeneratorFailure(t *testing.T) {
	repo := &mockFactRepo{}
	primary := &mockGenerator{
		generateFunc: func(ctx context.Context, category model.FactCategory) (*model.Fact, error) {
			return nil, &model.AnalysisError{Strategy: "openai-fact", Err: errors.New("timeout")}
		},
	}

	svc := NewService(repo, primary, testLogger())

	if err := svc.RotateDaily(context.Background()); err != nil {
		t.Fatalf("RotateDaily() error = %v", err)
	}

	if len(repo.activated) != 1 {
		t.Fatalf("activated = %d facts, want 1", len(repo.activated))
	}
	if repo.activated[0].Source != "Fallback Database" {
		t.Errorf("Source = %q, want Fallback Database", repo.activated[0].Source)
	}
	if repo.activated[0].Text == "" {
		t.Error("Text is empty, want fallback fact text")
	}
}

// TestRotateDaily_StoreError は保存失敗がStoreErrorとして返ることを検証する。
func TestRotateDaily_StoreError(t *testing.T) {
	repo := &mockFactRepo{
		activateFunc: func(ctx context.Context, fact *model.Fact) error {
			return errors.New("db down")
		},
	}

	svc := NewService(repo, nil, testLogger())

	err := svc.RotateDaily(context.Background())
	if err == nil {
		t.Fatal("RotateDaily() error = nil, want StoreError")
	}
	var storeErr *model.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("RotateDaily() error = %T, want *model.StoreError", err)
	}
}

// TestFallbackGenerator_AllCategories は全カテゴリで豆知識が返ることを検証する。
func TestFallbackGenerator_AllCategories(t *testing.T) {
	gen := NewFallbackGenerator()

	for _, category := range factCategories {
		fact, err := gen.Generate(context.Background(), category)
		if err != nil {
			t.Fatalf("Generate(%q) error = %v", category, err)
		}
		if fact.Text == "" {
			t.Errorf("Generate(%q) returned empty text", category)
		}
		if fact.Category != category {
			t.Errorf("Category = %q, want %q", fact.Category, category)
		}
	}
}
