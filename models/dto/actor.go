package dto

import "github.com/Xushengqwer/discussion_service/constant"

// Actor 已经过网关认证的调用者身份，控制器从 gin.Context 中组装后传给服务层。
type Actor struct {
	UserID string
	Role   constant.UserRole
}
