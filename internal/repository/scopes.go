package repository

import (
	"foodcourt-ordering/internal/model"

	"gorm.io/gorm"
)

func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}

func ownedBy(owner model.Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case owner.UserID != "" && owner.SessionID != "":
			return db.Where("(user_id = ? OR session_id = ?)", owner.UserID, owner.SessionID)
		case owner.UserID != "":
			return db.Where("user_id = ?", owner.UserID)
		case owner.SessionID != "":
			return db.Where("session_id = ?", owner.SessionID)
		default:
			return db.Where("1 = 0")
		}
	}
}

func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(limit).Offset((page - 1) * limit)
	}
}

// conn picks the transaction when one is in flight.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
