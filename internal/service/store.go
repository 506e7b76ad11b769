package service

import (
	"answer_bank_backend/internal/model"
	"context"
)

// Store 解析引擎依赖的存储契约。实现方须把"未找到"映射为
// util.ErrQuestionNotFound / util.ErrAnswerNotFound，其余存储故障
// 包装为 util.ErrStorageUnavailable（瞬态、可重试）。
type Store interface {
	// 题目
	GetQuestionByQID(ctx context.Context, scope, questionID, platform string) (*model.Question, error)
	GetQuestionByHash(ctx context.Context, scope, hash string) (*model.Question, error)
	GetQuestion(ctx context.Context, id uint) (*model.Question, error)
	FindQuestionByQIDString(ctx context.Context, questionID string) (*model.Question, error)
	ListCandidates(ctx context.Context, scope, qType, platform string, limit int) ([]model.Question, error)
	ListQuestions(ctx context.Context, limit int) ([]model.Question, error)
	SaveQuestion(ctx context.Context, q *model.Question) error
	CountQuestions(ctx context.Context) (int64, error)
	CountQuestionsByType(ctx context.Context) (map[string]int64, error)

	// 答案
	ListAnswers(ctx context.Context, questionRef uint) ([]model.Answer, error)
	GetAnswer(ctx context.Context, id uint) (*model.Answer, error)
	FindAnswer(ctx context.Context, questionRef uint, value, source string) (*model.Answer, error)
	SaveAnswer(ctx context.Context, a *model.Answer) error
	DeleteAnswer(ctx context.Context, id uint) error

	// InTx 在单个事务中执行 fn，fn 返回错误则整体回滚。
	// 聚合服务的每次变更都走事务，保证 accepted 标记不会停在中间态。
	InTx(ctx context.Context, fn func(Store) error) error
}
