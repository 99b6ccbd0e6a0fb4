package models

import "time"

type UserRole string

const (
	RoleFarmer UserRole = "farmer"
	RoleBuyer  UserRole = "buyer"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	Phone        string   `gorm:"size:30"`
	Address      string   `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsFarmer() bool {
	return u.Role == RoleFarmer
}

func (u *User) IsBuyer() bool {
	return u.Role == RoleBuyer
}
