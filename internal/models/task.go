package models

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TO_DO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	// TaskStatusOverdue is a derived label. It is never stored.
	TaskStatusOverdue TaskStatus = "OVERDUE"
)

type Task struct {
	ID                uint64     `gorm:"primarykey" json:"id"`
	Title             string     `gorm:"not null" json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	Status            TaskStatus `gorm:"type:varchar(20);not null;default:'TO_DO'" json:"status"`
	DueDate           *time.Time `json:"due_date"`
	CompletedAt       *time.Time `json:"completed_at"`
	CompletionComment *string    `gorm:"type:text" json:"completion_comment"`
	OwnerID           uint64     `gorm:"not null" json:"owner_id"`
	ProjectID         uint64     `gorm:"not null" json:"project_id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Relations
	Owner       User             `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Project     Project          `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}
