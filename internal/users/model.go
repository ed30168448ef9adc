package users

// User models a registered account. Password holds the bcrypt hash, never
// the plaintext.
type User struct {
	ID       string `gorm:"column:id;primaryKey;size:50;not null"`
	Username string `gorm:"column:username;size:190;not null;uniqueIndex"`
	Password string `gorm:"column:password;size:190;not null"`
	Fullname string `gorm:"column:fullname;size:190;not null"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}
