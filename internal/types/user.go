package types

import (
	"time"
)

// User rows use the external user_id as the natural primary key; the batch
// loader upserts them and never deletes.
type User struct {
	UserID    int64     `gorm:"primaryKey;column:user_id" json:"user_id"`
	Nome      string    `gorm:"not null;column:nome" json:"nome"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
