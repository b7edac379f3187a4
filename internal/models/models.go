package models

const (
	RoleNormal = "normal"
	RoleSuper  = "super"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Login        string `gorm:"uniqueIndex;not null"      json:"loginuser"`
	PasswordHash string `gorm:"not null"                  json:"-"`
	Role         string `gorm:"not null;default:normal"   json:"tipouser"`
}

type Product struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name       string  `gorm:"not null;index"            json:"nome"`
	OwnerLogin string  `gorm:"not null;index"            json:"loginuser"`
	Quantity   int     `gorm:"not null"                  json:"qtde"`
	Price      float64 `gorm:"type:numeric(10,2);not null" json:"preco"`
}

type Session struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	TokenHash string `gorm:"uniqueIndex;not null" json:"-"`
	Login     string `gorm:"index;not null"      json:"login"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
}
