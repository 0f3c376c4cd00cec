package facts

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/hitoshi/techscope/internal/model"
	"github.com/hitoshi/techscope/internal/repository"
)

// Service は日次の豆知識ローテーションを行う。
// 生成はprimary（外部モデル）を優先し、失敗時はfallback（組み込みDB）を使う。
type Service struct {
	factRepo repository.FactRepository
	primary  Generator
	fallback Generator
	logger   *slog.Logger
	now      func() time.Time
	rng      *rand.Rand
}

// NewService はServiceの新しいインスタンスを生成する。
// primaryはnil可（その場合は常にfallbackを使用する）。
func NewService(factRepo repository.FactRepository, primary Generator, logger *slog.Logger) *Service {
	return &Service{
		factRepo: factRepo,
		primary:  primary,
		fallback: NewFallbackGenerator(),
		logger:   logger,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// factCategories はローテーション対象のカテゴリ。
var factCategories = []model.FactCategory{
	model.FactCategoryCS,
	model.FactCategoryAI,
	model.FactCategoryTech,
	model.FactCategoryCompanies,
}

// RotateDaily は当日分の豆知識を生成してアクティブにする。
// 当日すでに生成済みの場合は何もしない（冪等）。
func (s *Service) RotateDaily(ctx context.Context) error {
	today := s.startOfDay(s.now())

	count, err := s.factRepo.CountCreatedSince(ctx, today)
	if err != nil {
		return &model.StoreError{Op: "count facts", Err: err}
	}
	if count > 0 {
		s.logger.Info("当日分の豆知識は生成済みのためスキップします",
			slog.Int("count", count),
		)
		return nil
	}

	category := factCategories[s.rng.Intn(len(factCategories))]

	fact, err := s.generate(ctx, category)
	if err != nil {
		return err
	}

	if err := s.factRepo.ActivateNew(ctx, fact); err != nil {
		return &model.StoreError{Op: "activate fact", Err: err}
	}

	s.logger.Info("豆知識をローテーションしました",
		slog.String("category", string(fact.Category)),
		slog.String("source", fact.Source),
		slog.Int64("fact_id", fact.ID),
	)
	return nil
}

// generate はprimary優先で豆知識を生成し、失敗時はfallbackを使う。
func (s *Service) generate(ctx context.Context, category model.FactCategory) (*model.Fact, error) {
	if s.primary != nil {
		fact, err := s.primary.Generate(ctx, category)
		if err == nil {
			return fact, nil
		}
		s.logger.Warn("豆知識の生成に失敗したため組み込みDBにフォールバックします",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)
	}

	return s.fallback.Generate(ctx, category)
}

// startOfDay はプロセスローカルのタイムゾーンでの当日0時を返す。
func (s *Service) startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
