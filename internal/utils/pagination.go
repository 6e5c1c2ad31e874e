package utils

import "gorm.io/gorm"

// Paginate is a gorm scope translating 1-based page/size into offset/limit.
func Paginate(page, size int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if size < 1 {
			size = 10
		}
		return db.Offset((page - 1) * size).Limit(size)
	}
}
