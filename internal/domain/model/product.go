package model

import "time"

type Product struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey" bson:"_id" json:"_id"`
	Image              string    `gorm:"type:text;not null" bson:"image" json:"image"`
	Name               string    `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Category           string    `gorm:"type:varchar(100);not null;index" bson:"category" json:"category"`
	Brand              string    `gorm:"type:varchar(100);not null" bson:"brand" json:"brand"`
	Description        string    `gorm:"type:text;not null" bson:"description" json:"description"`
	YearAdded          int       `gorm:"not null" bson:"yearAdded" json:"yearAdded"`
	Rating             float64   `gorm:"not null" bson:"rating" json:"rating"`
	OriginalPrice      float64   `gorm:"not null" bson:"originalPrice" json:"originalPrice"`
	DiscountPercentage float64   `gorm:"not null" bson:"discountPercentage" json:"discountPercentage"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
}
