package controller

import (
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/service"
	"answer_bank_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AnswerController 处理答案提交与聚合相关的API请求
type AnswerController struct {
	AnswerService *service.AnswerService
}

func NewAnswerController(answerService *service.AnswerService) *AnswerController {
	return &AnswerController{AnswerService: answerService}
}

// VoteRequest 定义投票请求模型
// swagger:model VoteRequest
type VoteRequest struct {
	Delta int `json:"delta"`
	Vote  int `json:"vote"`
}

// Submit godoc
// @Summary 提交一条答案
// @Description 题目不存在时自动建题；同题同值同来源的重复提交合并为保留较高置信度
// @Tags 答案管理
// @Accept json
// @Produce json
// @Param request body model.AnswerSubmission true "答案提交"
// @Success 201 {object} util.Response{data=model.Answer} "已保存"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 503 {object} util.Response "存储暂时不可用"
// @Router /api/answers [post]
func (c *AnswerController) Submit(ctx *gin.Context) {
	var submission model.AnswerSubmission
	if err := ctx.ShouldBindJSON(&submission); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.AnswerService.SubmitAnswer(ctx.Request.Context(), submission)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Created(ctx, answer)
}

// Vote godoc
// @Summary 对答案投票
// @Description 正负投票会触发所属题目最佳答案的重算
// @Tags 答案管理
// @Accept json
// @Produce json
// @Param id path int true "答案ID"
// @Param request body VoteRequest true "投票增量，正数为赞成"
// @Success 200 {object} util.Response{data=model.Answer} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "答案不存在"
// @Router /api/answers/{id}/vote [post]
func (c *AnswerController) Vote(ctx *gin.Context) {
	answerID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "无效的答案ID")
		return
	}

	var request VoteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	delta := request.Delta
	if delta == 0 {
		delta = request.Vote
	}
	if delta == 0 {
		util.BadRequest(ctx, "delta 不能为 0")
		return
	}

	answer, err := c.AnswerService.Vote(ctx.Request.Context(), uint(answerID), delta)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, answer)
}

// Conflicts godoc
// @Summary 查询题目的答案冲突
// @Description 按归一化答案值聚合，存在多个不同答案值时标记冲突
// @Tags 答案管理
// @Produce json
// @Param id path string true "题目ID"
// @Success 200 {object} util.Response{data=model.ConflictReport} "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/questions/{id}/conflicts [get]
func (c *AnswerController) Conflicts(ctx *gin.Context) {
	questionID := ctx.Param("id")
	if questionID == "" {
		util.BadRequest(ctx, "题目ID不能为空")
		return
	}

	report, err := c.AnswerService.DetectConflicts(ctx.Request.Context(), questionID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, report)
}
