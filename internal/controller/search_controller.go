package controller

import (
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/service"
	"answer_bank_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// SearchController 处理答案检索相关的API请求
type SearchController struct {
	SearchService *service.SearchService
}

func NewSearchController(searchService *service.SearchService) *SearchController {
	return &SearchController{SearchService: searchService}
}

// SearchRequest 定义答案检索请求模型，兼容不同采集端的字段命名
// swagger:model SearchRequest
type SearchRequest struct {
	QuestionID      string   `json:"questionId"`
	QuestionIDAlt   string   `json:"question_id"`
	ID              string   `json:"id"`
	Content         string   `json:"content"`
	QuestionContent string   `json:"questionContent"`
	Type            string   `json:"type"`
	QuestionType    string   `json:"questionType"`
	Platform        string   `json:"platform"`
	Scope           string   `json:"scope"`
	Options         []string `json:"options"`
}

// toQuery 规约为内部查询表示
func (r *SearchRequest) toQuery() model.SearchQuery {
	return model.SearchQuery{
		QuestionID: firstOf(r.QuestionID, r.QuestionIDAlt, r.ID),
		Content:    firstOf(r.Content, r.QuestionContent),
		Type:       firstOf(r.Type, r.QuestionType),
		Platform:   r.Platform,
		Scope:      r.Scope,
		Options:    r.Options,
	}
}

// BatchSearchRequest 定义批量检索请求模型
// swagger:model BatchSearchRequest
type BatchSearchRequest struct {
	Questions []SearchRequest `json:"questions" binding:"required"`
}

// Search godoc
// @Summary 检索单个题目的答案
// @Description 按 题目ID > 题干哈希 > 模糊匹配 的顺序逐层检索，未命中返回 found=false
// @Tags 答案检索
// @Accept json
// @Produce json
// @Param request body SearchRequest true "检索请求"
// @Success 200 {object} util.Response{data=model.SearchResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 503 {object} util.Response "存储暂时不可用"
// @Router /api/search [post]
func (c *SearchController) Search(ctx *gin.Context) {
	var request SearchRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	query := request.toQuery()
	if query.QuestionID == "" && query.Content == "" {
		util.BadRequest(ctx, "questionId 和 content 至少提供一个")
		return
	}

	result, err := c.SearchService.Resolve(ctx.Request.Context(), query)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// BatchSearch godoc
// @Summary 批量检索答案
// @Description 并发解析一批题目，结果顺序与请求一致，单题未命中不影响其他题
// @Tags 答案检索
// @Accept json
// @Produce json
// @Param request body BatchSearchRequest true "批量检索请求"
// @Success 200 {object} util.Response{data=model.BatchSearchResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/search/batch [post]
func (c *SearchController) BatchSearch(ctx *gin.Context) {
	var request BatchSearchRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(request.Questions) == 0 {
		util.BadRequest(ctx, "questions 不能为空")
		return
	}

	queries := make([]model.SearchQuery, 0, len(request.Questions))
	for i := range request.Questions {
		queries = append(queries, request.Questions[i].toQuery())
	}

	result, err := c.SearchService.BatchResolve(ctx.Request.Context(), queries)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// Stats godoc
// @Summary 题库统计
// @Description 返回题目总数及按题型的分布
// @Tags 答案检索
// @Produce json
// @Success 200 {object} util.Response{data=model.StoreStats} "成功"
// @Router /api/stats [get]
func (c *SearchController) Stats(ctx *gin.Context) {
	stats, err := c.SearchService.GetStats(ctx.Request.Context())
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// respondServiceError 将服务层错误映射为统一响应
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuestionNotFound), errors.Is(err, util.ErrAnswerNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrInvalidSubmission), errors.Is(err, util.ErrUnsupportedType):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrStorageUnavailable):
		util.ServiceUnavailable(ctx, "存储暂时不可用，请稍后重试")
	default:
		util.LogInternalError(ctx, err)
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
