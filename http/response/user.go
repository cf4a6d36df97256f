package response

import "github.com/yomuhub/yomu/model"

// SanitizedUser is what goes over the wire: the stored user minus the
// password hash.
type SanitizedUser struct {
	ID          int32      `json:"id"`
	Username    string     `json:"username"`
	Role        model.Role `json:"role"`
	Email       string     `json:"email"`
	Nickname    string     `json:"nickname"`
	AvatarURL   string     `json:"avatar_url"`
	CreatedTs   int64      `json:"created_ts"`
	LastLoginTs int64      `json:"last_login_ts"`
}

func UserResponse(user *model.User) *SanitizedUser {
	return &SanitizedUser{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		Email:       user.Email,
		Nickname:    user.Nickname,
		AvatarURL:   user.AvatarURL,
		CreatedTs:   user.CreatedTs,
		LastLoginTs: user.LastLoginTs,
	}
}
