package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Customer struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Phone           string             `json:"phone" bson:"phone"`
	Name            string             `json:"name" bson:"name" validate:"omitempty,min=2,max=80"`
	Email           string             `json:"email" bson:"email" validate:"omitempty,email"`
	IsAdmin         bool               `json:"is_admin" bson:"is_admin"`
	PhoneVerifiedAt *time.Time         `json:"phone_verified_at" bson:"phone_verified_at"`
	LastLoginAt     *time.Time         `json:"last_login_at" bson:"last_login_at"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"omitempty,min=2,max=80"`
	Email string `json:"email" binding:"omitempty,email"`
}

type Address struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	Label      string             `json:"label" bson:"label" binding:"max=40"`
	Line1      string             `json:"line1" bson:"line1" binding:"required,max=120"`
	Line2      string             `json:"line2" bson:"line2" binding:"max=120"`
	City       string             `json:"city" bson:"city" binding:"required,max=80"`
	PostalCode string             `json:"postal_code" bson:"postal_code" binding:"required,max=20"`
	Phone      string             `json:"phone" bson:"phone"`
	IsDefault  bool               `json:"is_default" bson:"is_default"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

type Review struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID  primitive.ObjectID `json:"product_id" bson:"product_id"`
	CustomerID primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	AuthorName string             `json:"author_name" bson:"author_name"`
	Rating     int                `json:"rating" bson:"rating" binding:"required,min=1,max=5"`
	Comment    string             `json:"comment" bson:"comment" binding:"max=1000"`
	IsApproved bool               `json:"is_approved" bson:"is_approved"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

type OTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type OTPVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
	Name  string `json:"name"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	Customer *Customer `json:"customer"`
	Tokens   any       `json:"tokens"`
}
