package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the administrator access level.
type Role string

const (
	// RoleGod has unrestricted access and controls category assignment.
	RoleGod Role = "god"
	// RoleKing is scoped to the single category in its domain.
	RoleKing Role = "king"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleGod || r == RoleKing
}

// Domain is the category a king rules. An empty Genre means no domain.
type Domain struct {
	Genre string `gorm:"column:genre;index" json:"genre,omitempty"`
}

// User представляє адміністратора дашборду.
type User struct {
	ID           string `gorm:"primaryKey" json:"uid"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Username     string `json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:text;index;not null" json:"role"`
	Domain       Domain `gorm:"embedded;embeddedPrefix:domain_" json:"domain"`

	Phone          string `json:"phone,omitempty"`
	About          string `gorm:"type:text" json:"about,omitempty"`
	TelegramChatID int64  `json:"telegramChatId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the collection name.
func (User) TableName() string {
	return "users"
}

// BeforeCreate: хук GORM, який викликається перед створенням запису.
// Він генерує новий UUID для користувача, якщо ID ще не встановлено.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// IsKing reports whether the user has the category-scoped role.
func (u *User) IsKing() bool {
	return u != nil && u.Role == RoleKing
}

// IsGod reports whether the user has unrestricted access.
func (u *User) IsGod() bool {
	return u != nil && u.Role == RoleGod
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Username       *string `json:"username"`
	Phone          *string `json:"phone"`
	About          *string `json:"about"`
	TelegramChatID *int64  `json:"telegramChatId"`
}

// Columns returns the column/value map for a partial update.
func (p ProfileUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Username != nil {
		cols["username"] = *p.Username
	}
	if p.Phone != nil {
		cols["phone"] = *p.Phone
	}
	if p.About != nil {
		cols["about"] = *p.About
	}
	if p.TelegramChatID != nil {
		cols["telegram_chat_id"] = *p.TelegramChatID
	}
	return cols
}
