package model

import "time"

// Comment is one entry in a task's discussion thread. A nil ParentID marks
// a top-level comment; a non-nil UpdatedAt marks it as edited.
type Comment struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	TaskID      string     `gorm:"index" json:"taskId"`
	ParentID    *string    `gorm:"index" json:"parentId,omitempty"`
	AuthorID    string     `json:"authorId"`
	AuthorEmail string     `json:"authorEmail"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
}

func (c Comment) Edited() bool {
	return c.UpdatedAt != nil
}
