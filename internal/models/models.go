package models

import (
	"encoding/json"
	"time"
)

// Envelope is the application-level wrapper every API response carries in
// addition to its HTTP status. Data stays raw so each call site can decode
// its own payload shape.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TokenPair is the credential pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Avatar struct {
	ID        string `json:"_id"`
	LocalPath string `json:"localPath"`
	URL       string `json:"url"`
}

type UserProfile struct {
	ID              string    `json:"_id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Avatar          Avatar    `json:"avatar"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	LoginType       string    `json:"loginType"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Instructor mirrors the relevant slice of the random-user collection.
type Instructor struct {
	Gender  string            `json:"gender"`
	Name    InstructorName    `json:"name"`
	Email   string            `json:"email"`
	Login   InstructorLogin   `json:"login"`
	Picture InstructorPicture `json:"picture"`
	Nat     string            `json:"nat"`
}

type InstructorName struct {
	Title string `json:"title"`
	First string `json:"first"`
	Last  string `json:"last"`
}

type InstructorLogin struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

type InstructorPicture struct {
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Thumbnail string `json:"thumbnail"`
}

// Product mirrors the random-product collection entry.
type Product struct {
	ID          string       `json:"_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`
	Stock       int          `json:"stock"`
	Category    string       `json:"category"`
	Brand       string       `json:"brand"`
	Owner       string       `json:"owner"`
	MainImage   ProductImage `json:"mainImage"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type ProductImage struct {
	ID        string `json:"_id"`
	LocalPath string `json:"localPath"`
	URL       string `json:"url"`
}

// Course is the client-side projection shown in the catalog. It is derived
// from a product joined with an instructor and is never persisted.
type Course struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Thumbnail   string           `json:"thumbnail"`
	Category    string           `json:"category"`
	Stock       int              `json:"stock"`
	Instructor  CourseInstructor `json:"instructor"`
}

type CourseInstructor struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}
