package model

import (
	usermodel "my-blog/pkg/core/user/model"
)

// 请求/响应数据结构
type (
	RegisterReq struct {
		Username string `json:"username" vd:"len($)>0 && len($)<=100"`
		Email    string `json:"email" vd:"email($) && len($)<=255"`
		Password string `json:"password" vd:"len($)>0 && len($)<=72"`
	}

	LoginReq struct {
		Email    string `json:"email" vd:"len($)>0 && len($)<=255"`
		Password string `json:"password" vd:"len($)>0 && len($)<=72"`
	}

	UserRes struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
)

// NewUserRes 只暴露公开字段, 不含密码哈希
func NewUserRes(u usermodel.User) UserRes {
	return UserRes{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
