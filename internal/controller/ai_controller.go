package controller

import (
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/service"
	"answer_bank_backend/internal/util"
	"errors"

	"answer_bank_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AIController 处理 AI 兜底答题相关的API请求
type AIController struct {
	AIService     *service.AIService
	SearchService *service.SearchService
	AnswerService *service.AnswerService
}

func NewAIController(aiService *service.AIService, searchService *service.SearchService, answerService *service.AnswerService) *AIController {
	return &AIController{
		AIService:     aiService,
		SearchService: searchService,
		AnswerService: answerService,
	}
}

// AIAnswerResponse AI 答题结果
// swagger:model AIAnswerResponse
type AIAnswerResponse struct {
	Answer      string  `json:"answer"`
	Explanation string  `json:"explanation,omitempty"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
	MatchTier   string  `json:"matchTier,omitempty"`
}

// Answer godoc
// @Summary 题库未命中时调用大模型答题
// @Description 先走题库检索，命中直接返回；未命中调用大模型生成答案并以 model_generated 来源回存题库
// @Tags AI
// @Accept json
// @Produce json
// @Param request body SearchRequest true "题目内容"
// @Success 200 {object} util.Response{data=AIAnswerResponse} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 503 {object} util.Response "大模型服务未配置或不可用"
// @Router /api/ai/answer [post]
func (c *AIController) Answer(ctx *gin.Context) {
	var request SearchRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	query := request.toQuery()
	if query.Content == "" {
		util.BadRequest(ctx, "content 不能为空")
		return
	}

	result, err := c.SearchService.Resolve(ctx.Request.Context(), query)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	if result.Found {
		util.Success(ctx, AIAnswerResponse{
			Answer:      result.Answer,
			Explanation: result.Explanation,
			Confidence:  result.Confidence,
			Source:      result.Source,
			MatchTier:   result.MatchTier,
		})
		return
	}

	generated, err := c.AIService.AnswerQuestion(ctx.Request.Context(), query.Content, query.Type, query.Options)
	if err != nil {
		if errors.Is(err, util.ErrAIServiceUnconfigured) {
			util.ServiceUnavailable(ctx, "大模型服务未配置")
			return
		}
		logger.Log.Error("AI 答题失败", zap.Error(err))
		util.ServiceUnavailable(ctx, "大模型服务暂时不可用")
		return
	}

	// 生成结果回存题库，失败只记日志不影响本次响应
	if _, err := c.AnswerService.SubmitAnswer(ctx.Request.Context(), model.AnswerSubmission{
		QuestionID:  query.QuestionID,
		Content:     query.Content,
		Type:        query.Type,
		Platform:    query.Platform,
		Scope:       query.Scope,
		Options:     query.Options,
		Value:       generated.Value,
		Explanation: generated.Explanation,
		Source:      model.SourceModelGenerated,
		Confidence:  generated.Confidence,
	}); err != nil {
		logger.Log.Warn("AI 答案回存失败", zap.String("question_id", query.QuestionID), zap.Error(err))
	}

	util.Success(ctx, AIAnswerResponse{
		Answer:      generated.Value,
		Explanation: generated.Explanation,
		Confidence:  generated.Confidence,
		Source:      model.SourceModelGenerated,
	})
}
