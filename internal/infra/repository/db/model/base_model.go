package model

import (
	"time"

	"gorm.io/gorm"
)

// ArchiveModel 封存資料只新增不修改
type ArchiveModel struct {
	ArchivedAt time.Time `gorm:"not null;default:now()" json:"archived_at"`
}

// BeforeUpdate 拒絕改寫已封存的資料
func (a *ArchiveModel) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrInvalidData
}

// BeforeCreate 封存時間統一用 UTC
func (a *ArchiveModel) BeforeCreate(tx *gorm.DB) error {
	if a.ArchivedAt.IsZero() {
		a.ArchivedAt = time.Now().UTC()
	}
	return nil
}
