package repository

import (
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/service"
	"answer_bank_backend/internal/util"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Store 把两个仓库组合成解析引擎的存储契约实现，
// 并把 gorm 错误翻译为领域错误（未找到 vs 瞬态故障）。
type Store struct {
	db        *gorm.DB
	questions *QuestionRepository
	answers   *AnswerRepository
}

var _ service.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		questions: NewQuestionRepository(db),
		answers:   NewAnswerRepository(db),
	}
}

func (s *Store) GetQuestionByQID(ctx context.Context, scope, questionID, platform string) (*model.Question, error) {
	q, err := s.questions.FindByQID(ctx, scope, questionID, platform)
	if err != nil {
		return nil, questionErr(err)
	}
	return q, nil
}

func (s *Store) GetQuestionByHash(ctx context.Context, scope, hash string) (*model.Question, error) {
	q, err := s.questions.FindByHash(ctx, scope, hash)
	if err != nil {
		return nil, questionErr(err)
	}
	return q, nil
}

func (s *Store) GetQuestion(ctx context.Context, id uint) (*model.Question, error) {
	q, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, questionErr(err)
	}
	return q, nil
}

func (s *Store) FindQuestionByQIDString(ctx context.Context, questionID string) (*model.Question, error) {
	q, err := s.questions.FindByQIDAny(ctx, questionID)
	if err != nil {
		return nil, questionErr(err)
	}
	return q, nil
}

func (s *Store) ListCandidates(ctx context.Context, scope, qType, platform string, limit int) ([]model.Question, error) {
	qs, err := s.questions.ListCandidates(ctx, scope, qType, platform, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return qs, nil
}

func (s *Store) ListQuestions(ctx context.Context, limit int) ([]model.Question, error) {
	qs, err := s.questions.List(ctx, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return qs, nil
}

func (s *Store) SaveQuestion(ctx context.Context, q *model.Question) error {
	if err := s.questions.Save(ctx, q); err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *Store) CountQuestions(ctx context.Context) (int64, error) {
	total, err := s.questions.Count(ctx)
	if err != nil {
		return 0, storageErr(err)
	}
	return total, nil
}

func (s *Store) CountQuestionsByType(ctx context.Context) (map[string]int64, error) {
	counts, err := s.questions.CountByType(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return counts, nil
}

func (s *Store) ListAnswers(ctx context.Context, questionRef uint) ([]model.Answer, error) {
	answers, err := s.answers.FindByQuestion(ctx, questionRef)
	if err != nil {
		return nil, storageErr(err)
	}
	return answers, nil
}

func (s *Store) GetAnswer(ctx context.Context, id uint) (*model.Answer, error) {
	answer, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return nil, answerErr(err)
	}
	return answer, nil
}

func (s *Store) FindAnswer(ctx context.Context, questionRef uint, value, source string) (*model.Answer, error) {
	answer, err := s.answers.FindEquivalent(ctx, questionRef, value, source)
	if err != nil {
		return nil, answerErr(err)
	}
	return answer, nil
}

func (s *Store) SaveAnswer(ctx context.Context, answer *model.Answer) error {
	if err := s.answers.Save(ctx, answer); err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *Store) DeleteAnswer(ctx context.Context, id uint) error {
	if err := s.answers.Delete(ctx, id); err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *Store) InTx(ctx context.Context, fn func(service.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func questionErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrQuestionNotFound
	}
	return storageErr(err)
}

func answerErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrAnswerNotFound
	}
	return storageErr(err)
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", util.ErrStorageUnavailable, err)
}
