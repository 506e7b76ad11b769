package repository

import (
	"answer_bank_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

// FindByQuestion 取题目的全部答案，按创建顺序返回（平局时先插入者优先）
func (r *AnswerRepository) FindByQuestion(ctx context.Context, questionRef uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.WithContext(ctx).
		Where("question_ref = ?", questionRef).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}

func (r *AnswerRepository) FindByID(ctx context.Context, id uint) (*model.Answer, error) {
	var answer model.Answer
	if err := r.DB.WithContext(ctx).First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

// FindEquivalent 按 (题目, 答案值, 来源) 查重
func (r *AnswerRepository) FindEquivalent(ctx context.Context, questionRef uint, value, source string) (*model.Answer, error) {
	var answer model.Answer
	err := r.DB.WithContext(ctx).
		Where("question_ref = ? AND value = ? AND source = ?", questionRef, value, source).
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerRepository) Save(ctx context.Context, answer *model.Answer) error {
	return r.DB.WithContext(ctx).Save(answer).Error
}

// Delete 物理删除（质量修复专用，正常流程从不删除答案）
func (r *AnswerRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Unscoped().Delete(&model.Answer{}, id).Error
}
