package Models

import (
	"gorm.io/gorm"
)

// Permission levels: 1 = buyer, 2 = vendor, 3 = admin
type User struct {
	gorm.Model
	Name       string `json:"name" gorm:"not null"`
	Phone      string `json:"phone" gorm:"uniqueIndex;not null"`
	Email      string `json:"email"`
	Password   []byte `json:"-" gorm:"not null"`
	Permission int    `json:"permission" gorm:"not null;default:1"`
	IsApproved int    `json:"is_approved" gorm:"default:0"`
}
