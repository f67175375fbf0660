package specification

import "gorm.io/gorm"

// ByEmail filters users by their unique email address.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}
