package scope

import "gorm.io/gorm"

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// OrderByPosition keeps questionnaire questions in file order.
func OrderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
