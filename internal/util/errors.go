package util

import "errors"

var (
	ErrQuestionNotFound      = errors.New("question not found")
	ErrAnswerNotFound        = errors.New("answer not found")
	ErrStorageUnavailable    = errors.New("storage temporarily unavailable") // 瞬态错误，可重试
	ErrInvalidSubmission     = errors.New("invalid answer submission")
	ErrUnsupportedType       = errors.New("question type not supported")
	ErrAIServiceUnconfigured = errors.New("AI service not configured")
)

// IsTransient 判断是否为可重试的存储层瞬态错误
func IsTransient(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
