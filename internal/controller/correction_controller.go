package controller

import (
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/service"
	"answer_bank_backend/internal/util"
	"io"

	"github.com/gin-gonic/gin"
)

// CorrectionController 处理纠错流程相关的API请求
type CorrectionController struct {
	Tracker *service.CorrectionTracker
}

func NewCorrectionController(tracker *service.CorrectionTracker) *CorrectionController {
	return &CorrectionController{Tracker: tracker}
}

// NextCandidateRequest 定义排除法候选请求模型
// swagger:model NextCandidateRequest
type NextCandidateRequest struct {
	QuestionID    string   `json:"questionId" binding:"required"`
	Type          string   `json:"type"`
	QuestionType  string   `json:"questionType"`
	OptionLetters []string `json:"optionLetters"`
	Attempted     string   `json:"attempted"`
}

// NextCandidateResponse 排除法候选结果
// swagger:model NextCandidateResponse
type NextCandidateResponse struct {
	QuestionID string   `json:"questionId"`
	Next       string   `json:"nextAnswer"`
	Exhausted  bool     `json:"exhausted"`
	Attempts   []string `json:"attemptedAnswers"`
}

// Next godoc
// @Summary 排除法获取下一个候选答案
// @Description 记录本次尝试后返回下一个未试过的选项；判断题两次尝试后、单选题试遍选项后不再给候选
// @Tags 纠错
// @Accept json
// @Produce json
// @Param request body NextCandidateRequest true "候选请求"
// @Success 200 {object} util.Response{data=NextCandidateResponse} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/correction/next [post]
func (c *CorrectionController) Next(ctx *gin.Context) {
	var request NextCandidateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if request.Attempted != "" {
		c.Tracker.Record(request.QuestionID, request.Attempted)
	}

	qType := firstOf(request.Type, request.QuestionType)
	next := c.Tracker.NextCandidate(request.QuestionID, qType, request.OptionLetters)

	util.Success(ctx, NextCandidateResponse{
		QuestionID: request.QuestionID,
		Next:       next,
		Exhausted:  next == "",
		Attempts:   c.Tracker.Attempted(request.QuestionID),
	})
}

// Feedback godoc
// @Summary 上报一批批改反馈
// @Description 接受扁平 items 列表或按题型分组的 resultObject 两种结构，对答错的题生成纠错指令
// @Tags 纠错
// @Accept json
// @Produce json
// @Success 200 {object} util.Response{data=model.FeedbackReport} "成功"
// @Failure 400 {object} util.Response "请求体无法解析"
// @Router /api/correction/feedback [post]
func (c *CorrectionController) Feedback(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	batch, err := model.ParseGradingBatch(body)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Success(ctx, c.Tracker.RecordFeedback(batch))
}

// Reset godoc
// @Summary 清空某道题的尝试记录
// @Tags 纠错
// @Produce json
// @Param id path string true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/correction/reset/{id} [post]
func (c *CorrectionController) Reset(ctx *gin.Context) {
	questionID := ctx.Param("id")
	if questionID == "" {
		util.BadRequest(ctx, "题目ID不能为空")
		return
	}

	c.Tracker.Reset(questionID)
	util.Success(ctx, gin.H{"questionId": questionID})
}
