package user

import "time"

type Badges struct {
	Local            bool `json:"local"`
	Traveler         bool `json:"traveler"`
	CommunityTrusted bool `json:"community_trusted"`
}

type User struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email,omitempty"`
	AvatarURL          string    `json:"avatar_url,omitempty"`
	Role               string    `json:"role"`
	ContributionsCount int       `json:"contributions_count"`
	Badges             Badges    `json:"badges"`
	CreatedAt          time.Time `json:"created_at"`
}

// TrustedThreshold is the verified-contribution count at which a user earns
// the community-trusted badge.
const TrustedThreshold = 10

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)
