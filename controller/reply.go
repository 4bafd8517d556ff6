package controller

import (
	"net/http"

	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/service"
)

// ReplyController 回复接口：发表、编辑、删除、投票、采纳与各类列表。
type ReplyController struct {
	replyService      service.ReplyService
	acceptanceService service.AcceptanceService
}

func NewReplyController(replyService service.ReplyService, acceptanceService service.AcceptanceService) *ReplyController {
	return &ReplyController{
		replyService:      replyService,
		acceptanceService: acceptanceService,
	}
}

// CreateReply 发表回复
// @Summary      发表回复
// @Description  parentReplyId 为空时发表顶层回复，否则回复指定的回复。嵌套层级超过上限返回 422。
// @Tags         replies (回复)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        X-User-Role header string false "角色 student/instructor/moderator"
// @Param        id path uint64 true "帖子 ID"
// @Param        body body dto.CreateReplyRequest true "回复内容"
// @Success      200 {object} vo.ReplyResponseWrapper "回复发表成功"
// @Failure      400 {object} vo.BaseResponseWrapper "内容为空或过长"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子或父回复不存在"
// @Failure      422 {object} vo.BaseResponseWrapper "嵌套层级超过上限"
// @Router       /api/v1/discussion/posts/{id}/replies [post]
func (ctrl *ReplyController) CreateReply(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "id", "帖子")
	if !ok {
		return
	}
	var req dto.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求数据: "+err.Error())
		return
	}
	reply, err := ctrl.replyService.CreateReply(c.Request.Context(), actor, postID, &req)
	if err != nil {
		respondServiceError(c, "发表回复失败", err)
		return
	}
	response.RespondSuccess(c, reply, "回复发表成功")
}

// ListTopLevel 帖子的顶层回复
// @Summary      获取顶层回复
// @Description  按得分降序、创建时间升序排列，不含已删除的回复。
// @Tags         replies (回复)
// @Produce      json
// @Param        id path uint64 true "帖子 ID"
// @Success      200 {object} vo.ReplyListResponseWrapper "顶层回复列表"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子不存在"
// @Router       /api/v1/discussion/posts/{id}/replies [get]
func (ctrl *ReplyController) ListTopLevel(c *gin.Context) {
	postID, ok := parseIDParam(c, "id", "帖子")
	if !ok {
		return
	}
	replies, err := ctrl.replyService.ListTopLevel(c.Request.Context(), postID)
	if err != nil {
		respondServiceError(c, "获取回复列表失败", err)
		return
	}
	response.RespondSuccess(c, replies, "回复列表获取成功")
}

// ListChildren 某条回复的直接子回复
// @Summary      获取子回复
// @Description  按创建时间升序排列，不含已删除的回复。父回复已删除时仍可查询。
// @Tags         replies (回复)
// @Produce      json
// @Param        id path uint64 true "父回复 ID"
// @Success      200 {object} vo.ReplyListResponseWrapper "子回复列表"
// @Failure      404 {object} vo.BaseResponseWrapper "父回复不存在"
// @Router       /api/v1/discussion/replies/{id}/children [get]
func (ctrl *ReplyController) ListChildren(c *gin.Context) {
	replyID, ok := parseIDParam(c, "id", "回复")
	if !ok {
		return
	}
	replies, err := ctrl.replyService.ListChildren(c.Request.Context(), replyID)
	if err != nil {
		respondServiceError(c, "获取子回复失败", err)
		return
	}
	response.RespondSuccess(c, replies, "子回复获取成功")
}

// ListMyReplies 当前用户发表过的回复
// @Summary      我的回复
// @Description  按创建时间倒序分页，不含已删除的回复。
// @Tags         replies (回复)
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        page query int false "页码" minimum(1) default(1)
// @Param        pageSize query int false "每页数量" minimum(1) maximum(100) default(20)
// @Success      200 {object} vo.UserRepliesPageResponseWrapper "回复分页"
// @Failure      401 {object} vo.BaseResponseWrapper "未登录"
// @Router       /api/v1/discussion/replies/mine [get]
func (ctrl *ReplyController) ListMyReplies(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.ListUserRepliesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}
	page, err := ctrl.replyService.ListUserReplies(c.Request.Context(), actor.UserID, &query)
	if err != nil {
		respondServiceError(c, "获取我的回复失败", err)
		return
	}
	response.RespondSuccess(c, page, "我的回复获取成功")
}

// EditReply 作者编辑回复
// @Summary      编辑回复
// @Tags         replies (回复)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        id path uint64 true "回复 ID"
// @Param        body body dto.EditReplyRequest true "新内容"
// @Success      200 {object} vo.ReplyResponseWrapper "编辑成功"
// @Failure      403 {object} vo.BaseResponseWrapper "不是作者"
// @Failure      404 {object} vo.BaseResponseWrapper "回复不存在或已删除"
// @Failure      409 {object} vo.BaseResponseWrapper "并发修改冲突"
// @Router       /api/v1/discussion/replies/{id} [put]
func (ctrl *ReplyController) EditReply(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	replyID, ok := parseIDParam(c, "id", "回复")
	if !ok {
		return
	}
	var req dto.EditReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求数据: "+err.Error())
		return
	}
	reply, err := ctrl.replyService.EditReply(c.Request.Context(), actor, replyID, &req)
	if err != nil {
		respondServiceError(c, "编辑回复失败", err)
		return
	}
	response.RespondSuccess(c, reply, "回复编辑成功")
}

// DeleteReply 软删除回复
// @Summary      删除回复
// @Description  作者、讲师或版主可以删除。子回复保留，详情页中以占位节点展示已删除的父回复。
// @Tags         replies (回复)
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        X-User-Role header string false "角色 student/instructor/moderator"
// @Param        id path uint64 true "回复 ID"
// @Success      200 {object} vo.BaseResponseWrapper "删除成功"
// @Failure      403 {object} vo.BaseResponseWrapper "无权删除"
// @Failure      404 {object} vo.BaseResponseWrapper "回复不存在或已删除"
// @Router       /api/v1/discussion/replies/{id} [delete]
func (ctrl *ReplyController) DeleteReply(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	replyID, ok := parseIDParam(c, "id", "回复")
	if !ok {
		return
	}
	if err := ctrl.replyService.SoftDeleteReply(c.Request.Context(), actor, replyID); err != nil {
		respondServiceError(c, "删除回复失败", err)
		return
	}
	response.RespondSuccess[any](c, nil, "回复删除成功")
}

// VoteReply 给回复投票
// @Summary      回复投票
// @Description  同方向重复投票即撤销，反方向即改投。已删除的回复不能投票。
// @Tags         votes (投票)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        id path uint64 true "回复 ID"
// @Param        body body dto.VoteRequest true "投票方向"
// @Success      200 {object} vo.VoteResultResponseWrapper "投票后的计数"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的投票方向"
// @Failure      404 {object} vo.BaseResponseWrapper "回复不存在或已删除"
// @Router       /api/v1/discussion/replies/{id}/vote [post]
func (ctrl *ReplyController) VoteReply(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	replyID, ok := parseIDParam(c, "id", "回复")
	if !ok {
		return
	}
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的投票请求: "+err.Error())
		return
	}
	result, err := ctrl.replyService.VoteReply(c.Request.Context(), actor, replyID, req.ToDirection())
	if err != nil {
		respondServiceError(c, "投票失败", err)
		return
	}
	response.RespondSuccess(c, result, "投票成功")
}

// AcceptReply 讲师采纳回复
// @Summary      采纳回复
// @Description  同一帖子最多一条已采纳回复，新采纳会清除旧的采纳标记。仅讲师可用。
// @Tags         answers (答案)
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        X-User-Role header string true "角色，必须为 instructor"
// @Param        id path uint64 true "回复 ID"
// @Success      200 {object} vo.AnswerStateResponseWrapper "帖子答案状态"
// @Failure      403 {object} vo.BaseResponseWrapper "不是讲师"
// @Failure      404 {object} vo.BaseResponseWrapper "回复不存在或已删除"
// @Router       /api/v1/discussion/replies/{id}/accept [post]
func (ctrl *ReplyController) AcceptReply(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	replyID, ok := parseIDParam(c, "id", "回复")
	if !ok {
		return
	}
	state, err := ctrl.acceptanceService.AcceptReplyByID(c.Request.Context(), actor, replyID)
	if err != nil {
		respondServiceError(c, "采纳回复失败", err)
		return
	}
	response.RespondSuccess(c, state, "回复已采纳")
}

// RegisterRoutes 注册 ReplyController 的路由
func (ctrl *ReplyController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/posts/:id/replies", ctrl.ListTopLevel) // GET /api/v1/discussion/posts/:id/replies
	group.POST("/posts/:id/replies", ctrl.CreateReply) // POST /api/v1/discussion/posts/:id/replies

	replies := group.Group("/replies")
	{
		replies.GET("/mine", ctrl.ListMyReplies)        // GET /api/v1/discussion/replies/mine
		replies.GET("/:id/children", ctrl.ListChildren) // GET /api/v1/discussion/replies/:id/children
		replies.PUT("/:id", ctrl.EditReply)             // PUT /api/v1/discussion/replies/:id
		replies.DELETE("/:id", ctrl.DeleteReply)        // DELETE /api/v1/discussion/replies/:id
		replies.POST("/:id/vote", ctrl.VoteReply)       // POST /api/v1/discussion/replies/:id/vote
		replies.POST("/:id/accept", ctrl.AcceptReply)   // POST /api/v1/discussion/replies/:id/accept
	}
}
