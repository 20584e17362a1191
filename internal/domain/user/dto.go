package user

// UpdateProfileRequest carries the editable profile fields. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=80"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}
