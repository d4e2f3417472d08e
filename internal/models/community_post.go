package models

import "time"

// CommunityPost is a free-text post from the citizen community feed. Read-only here.
type CommunityPost struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	Text      string     `gorm:"type:text" json:"text"`
	UserName  string     `json:"userName"`
	CreatedAt *time.Time `gorm:"autoCreateTime:false" json:"createdAt,omitempty"`
}

func (CommunityPost) TableName() string {
	return "community_posts"
}
