package repository

import (
	"answer_bank_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// FindByQID 按平台题目ID在指定作用域内查找
func (r *QuestionRepository) FindByQID(ctx context.Context, scope, questionID, platform string) (*model.Question, error) {
	query := r.DB.WithContext(ctx).Where("question_id = ? AND scope = ?", questionID, scope)
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	var question model.Question
	if err := query.First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// FindByHash 按内容哈希在指定作用域内查找
func (r *QuestionRepository) FindByHash(ctx context.Context, scope, hash string) (*model.Question, error) {
	var question model.Question
	err := r.DB.WithContext(ctx).
		Where("content_hash = ? AND scope = ?", hash, scope).
		First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// FindByID 按主键查找
func (r *QuestionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.DB.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// FindByQIDAny 按平台题目ID查找，不限作用域（审核/冲突检测入口）
func (r *QuestionRepository) FindByQIDAny(ctx context.Context, questionID string) (*model.Question, error) {
	var question model.Question
	err := r.DB.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id ASC").
		First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// ListCandidates 取模糊匹配候选集，按题型与平台过滤，硬上限 limit
func (r *QuestionRepository) ListCandidates(ctx context.Context, scope, qType, platform string, limit int) ([]model.Question, error) {
	query := r.DB.WithContext(ctx).Where("scope = ?", scope)
	if qType != "" {
		query = query.Where("type = ?", qType)
	}
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	var questions []model.Question
	err := query.Limit(limit).Find(&questions).Error
	return questions, err
}

// List 按主键顺序取题目（批量审核用）
func (r *QuestionRepository) List(ctx context.Context, limit int) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.WithContext(ctx).Order("id ASC").Limit(limit).Find(&questions).Error
	return questions, err
}

// Save 新建或整体更新
func (r *QuestionRepository) Save(ctx context.Context, question *model.Question) error {
	return r.DB.WithContext(ctx).Save(question).Error
}

func (r *QuestionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).Model(&model.Question{}).Count(&total).Error
	return total, err
}

// CountByType 各题型数量统计
func (r *QuestionRepository) CountByType(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Type  string
		Total int64
	}
	var rows []row
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Select("type, COUNT(*) AS total").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Total
	}
	return counts, nil
}
