package controller

import (
	"errors"
	"net/http"

	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/service"
)

// PostController 帖子相关接口：列表、详情、发帖、编辑、删除、投票与标记已解决。
type PostController struct {
	postService       service.PostService
	postListService   service.PostListService
	acceptanceService service.AcceptanceService
}

func NewPostController(postService service.PostService, postListService service.PostListService, acceptanceService service.AcceptanceService) *PostController {
	return &PostController{
		postService:       postService,
		postListService:   postListService,
		acceptanceService: acceptanceService,
	}
}

// ListPosts 帖子列表 (页码分页)
// @Summary      获取帖子列表
// @Description  按最新、得票、最近活跃或未解决排序，支持分类过滤与标题/正文/标签关键字搜索。
// @Tags         posts (帖子)
// @Produce      json
// @Param        page query int false "页码 (从1开始)" minimum(1) default(1)
// @Param        pageSize query int false "每页数量" minimum(1) maximum(100) default(20)
// @Param        sortBy query string false "排序方式" Enums(latest,votes,activity,unanswered) default(latest)
// @Param        category query string false "分类" maxLength(50)
// @Param        search query string false "关键字" maxLength(100)
// @Success      200 {object} vo.PostListPageResponseWrapper "帖子列表"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的查询参数"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/discussion/posts [get]
func (ctrl *PostController) ListPosts(c *gin.Context) {
	var query dto.ListPostsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}
	page, err := ctrl.postListService.ListPosts(c.Request.Context(), &query)
	if err != nil {
		respondServiceError(c, "获取帖子列表失败", err)
		return
	}
	response.RespondSuccess(c, page, "帖子列表获取成功")
}

// CreatePost 发帖，可选附带一个附件
// @Summary      创建帖子
// @Description  请求体为 multipart/form-data。附件上传失败不会阻止发帖，帖子将不带附件保存。
// @Tags         posts (帖子)
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        title formData string true "标题" maxLength(300)
// @Param        content formData string true "正文" maxLength(5000)
// @Param        category formData string false "分类，默认 general" maxLength(50)
// @Param        tags formData []string false "标签，最多 10 个，可逗号分隔" collectionFormat(multi)
// @Param        media formData file false "附件"
// @Success      200 {object} vo.PostDetailResponseWrapper "帖子创建成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求数据"
// @Failure      401 {object} vo.BaseResponseWrapper "未登录"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/discussion/posts [post]
func (ctrl *PostController) CreatePost(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "绑定请求数据失败: "+err.Error())
		return
	}

	media, err := c.FormFile("media")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "读取附件失败: "+err.Error())
		return
	}

	detail, err := ctrl.postService.CreatePost(c.Request.Context(), actor, &req, media)
	if err != nil {
		respondServiceError(c, "创建帖子失败", err)
		return
	}
	response.RespondSuccess(c, detail, "帖子创建成功")
}

// GetPost 帖子详情
// @Summary      获取帖子详情
// @Description  返回帖子内容、答案状态与完整回复树，每次读取浏览量加一。
// @Tags         posts (帖子)
// @Produce      json
// @Param        id path uint64 true "帖子 ID"
// @Success      200 {object} vo.PostDetailResponseWrapper "帖子详情"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的帖子 ID"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子不存在"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/discussion/posts/{id} [get]
func (ctrl *PostController) GetPost(c *gin.Context) {
	postID, ok := parseIDParam(c, "id", "帖子")
	if !ok {
		return
	}
	detail, err := ctrl.postService.GetPost(c.Request.Context(), postID)
	if err != nil {
		respondServiceError(c, "获取帖子详情失败", err)
		return
	}
	response.RespondSuccess(c, detail, "帖子详情获取成功")
}

// UpdatePost 作者编辑帖子
// @Summary      编辑帖子
// @Description  只有作者可以编辑，未提交的字段保持不变。
// @Tags         posts (帖子)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        id path uint64 true "帖子 ID"
// @Param        body body dto.UpdatePostRequest true "需要修改的字段"
// @Success      200 {object} vo.PostDetailResponseWrapper "编辑成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求数据"
// @Failure      403 {object} vo.BaseResponseWrapper "不是作者"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子不存在"
// @Failure      409 {object} vo.BaseResponseWrapper "并发修改冲突"
// @Router       /api/v1/discussion/posts/{id} [put]
func (ctrl *PostController) UpdatePost(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "id", "帖子")
	if !ok {
		return
	}
	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求数据: "+err.Error())
		return
	}
	detail, err := ctrl.postService.UpdatePost(c.Request.Context(), actor, postID, &req)
	if err != nil {
		respondServiceError(c, "编辑帖子失败", err)
		return
	}
	response.RespondSuccess(c, detail, "帖子编辑成功")
}

// DeletePost 删除帖子
// @Summary      删除帖子
// @Description  作者、讲师或版主可以删除。帖子、全部回复与投票一并物理删除。
// @Tags         posts (帖子)
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        X-User-Role header string false "角色 student/instructor/moderator"
// @Param        id path uint64 true "帖子 ID"
// @Success      200 {object} vo.BaseResponseWrapper "删除成功"
// @Failure      403 {object} vo.BaseResponseWrapper "无权删除"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子不存在"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/discussion/posts/{id} [delete]
func (ctrl *PostController) DeletePost(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "id", "帖子")
	if !ok {
		return
	}
	if err := ctrl.postService.DeletePost(c.Request.Context(), actor, postID); err != nil {
		respondServiceError(c, "删除帖子失败", err)
		return
	}
	response.RespondSuccess[any](c, nil, "帖子删除成功")
}

// VotePost 给帖子投票
// @Summary      帖子投票
// @Description  同方向重复投票即撤销，反方向即改投。
// @Tags         votes (投票)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        id path uint64 true "帖子 ID"
// @Param        body body dto.VoteRequest true "投票方向"
// @Success      200 {object} vo.VoteResultResponseWrapper "投票后的计数"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的投票方向"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子不存在"
// @Failure      409 {object} vo.BaseResponseWrapper "并发修改冲突"
// @Router       /api/v1/discussion/posts/{id}/vote [post]
func (ctrl *PostController) VotePost(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "id", "帖子")
	if !ok {
		return
	}
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的投票请求: "+err.Error())
		return
	}
	result, err := ctrl.postService.VotePost(c.Request.Context(), actor, postID, req.ToDirection())
	if err != nil {
		respondServiceError(c, "投票失败", err)
		return
	}
	response.RespondSuccess(c, result, "投票成功")
}

// MarkAnswered 讲师标记帖子已解决
// @Summary      标记帖子已解决
// @Description  指定 replyId 时等同于采纳该回复；未指定时只修改帖子状态。仅讲师可用。
// @Tags         answers (答案)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "用户 ID (由网关注入)"
// @Param        X-User-Role header string true "角色，必须为 instructor"
// @Param        id path uint64 true "帖子 ID"
// @Param        body body dto.MarkAnsweredRequest false "可选的回复 ID"
// @Success      200 {object} vo.AnswerStateResponseWrapper "帖子答案状态"
// @Failure      403 {object} vo.BaseResponseWrapper "不是讲师"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子或回复不存在"
// @Router       /api/v1/discussion/posts/{id}/answered [post]
func (ctrl *PostController) MarkAnswered(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "id", "帖子")
	if !ok {
		return
	}
	var req dto.MarkAnsweredRequest
	// 允许空请求体
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求数据: "+err.Error())
			return
		}
	}
	state, err := ctrl.acceptanceService.MarkPostAnswered(c.Request.Context(), actor, postID, req.ReplyID)
	if err != nil {
		respondServiceError(c, "标记已解决失败", err)
		return
	}
	response.RespondSuccess(c, state, "帖子已标记为已解决")
}

// RegisterRoutes 注册 PostController 的路由
func (ctrl *PostController) RegisterRoutes(group *gin.RouterGroup) {
	posts := group.Group("/posts")
	{
		posts.GET("", ctrl.ListPosts)                  // GET /api/v1/discussion/posts
		posts.POST("", ctrl.CreatePost)                // POST /api/v1/discussion/posts
		posts.GET("/:id", ctrl.GetPost)                // GET /api/v1/discussion/posts/:id
		posts.PUT("/:id", ctrl.UpdatePost)             // PUT /api/v1/discussion/posts/:id
		posts.DELETE("/:id", ctrl.DeletePost)          // DELETE /api/v1/discussion/posts/:id
		posts.POST("/:id/vote", ctrl.VotePost)         // POST /api/v1/discussion/posts/:id/vote
		posts.POST("/:id/answered", ctrl.MarkAnswered) // POST /api/v1/discussion/posts/:id/answered
	}
}
