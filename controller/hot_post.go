package controller

import (
	"net/http"

	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/service"
)

// HotPostController 热门帖子榜单接口
type HotPostController struct {
	hotPostService service.HotPostService
}

func NewHotPostController(hotPostService service.HotPostService) *HotPostController {
	return &HotPostController{hotPostService: hotPostService}
}

// GetHotPostsByCursor 通过游标获取热门帖子
// @Summary      通过游标获取热门帖子
// @Description  榜单由定时任务按浏览量生成，游标为上一页最后一个帖子的 ID。游标帖子已掉出榜单时返回 400，客户端应从头加载。
// @Tags         hot-posts (热门帖子)
// @Produce      json
// @Param        lastPostId query uint64 false "上一页最后一个帖子的 ID，首页省略"
// @Param        limit query int true "每页帖子数量" minimum(1) maximum(100)
// @Success      200 {object} vo.ListPostsByCursorResponseWrapper "热门帖子列表"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的 limit 或游标"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/discussion/posts/hot [get]
func (ctrl *HotPostController) GetHotPostsByCursor(c *gin.Context) {
	var query dto.HotPostsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}

	result, err := ctrl.hotPostService.GetHotPostsByCursor(c.Request.Context(), query.LastPostID, query.Limit)
	if err != nil {
		respondServiceError(c, "检索热门帖子失败", err)
		return
	}
	response.RespondSuccess(c, result, "热门帖子检索成功")
}

// RegisterRoutes 注册 HotPostController 的路由，需先于 /posts/:id 注册
func (ctrl *HotPostController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/posts/hot", ctrl.GetHotPostsByCursor) // GET /api/v1/discussion/posts/hot
}
