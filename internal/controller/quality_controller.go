package controller

import (
	"answer_bank_backend/internal/service"
	"answer_bank_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// QualityController 处理题目质量审核相关的API请求
type QualityController struct {
	QualityService *service.QualityService
}

func NewQualityController(qualityService *service.QualityService) *QualityController {
	return &QualityController{QualityService: qualityService}
}

// Audit godoc
// @Summary 审核单个题目的答案质量
// @Description 按缺答案、答案冲突、低置信度、负投票等维度扣分，返回 0-100 的质量分与问题清单
// @Tags 质量审核
// @Produce json
// @Param id path string true "题目ID"
// @Success 200 {object} util.Response{data=model.AuditReport} "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/quality/audit/{id} [get]
func (c *QualityController) Audit(ctx *gin.Context) {
	questionID := ctx.Param("id")
	if questionID == "" {
		util.BadRequest(ctx, "题目ID不能为空")
		return
	}

	report, err := c.QualityService.Audit(ctx.Request.Context(), questionID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, report)
}

// BatchAudit godoc
// @Summary 批量审核题目质量
// @Description 审核最多 limit 道题，按质量分从低到高排序返回
// @Tags 质量审核
// @Produce json
// @Param limit query int false "审核数量上限，默认 100"
// @Success 200 {object} util.Response{data=[]model.AuditReport} "成功"
// @Router /api/quality/batch [get]
func (c *QualityController) BatchAudit(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			util.BadRequest(ctx, "limit 必须是正整数")
			return
		}
		limit = parsed
	}

	reports, err := c.QualityService.BatchAudit(ctx.Request.Context(), limit)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"total":   len(reports),
		"reports": reports,
	})
}

// AutoFix godoc
// @Summary 自动修复题目的质量问题
// @Description 删除被明显否决的未核验答案并重算最佳答案
// @Tags 质量审核
// @Produce json
// @Param id path string true "题目ID"
// @Success 200 {object} util.Response{data=model.FixReport} "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/quality/fix/{id} [post]
func (c *QualityController) AutoFix(ctx *gin.Context) {
	questionID := ctx.Param("id")
	if questionID == "" {
		util.BadRequest(ctx, "题目ID不能为空")
		return
	}

	report, err := c.QualityService.AutoFix(ctx.Request.Context(), questionID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, report)
}
