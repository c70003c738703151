package mockapi

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandipan-das-sd/lms/internal/models"
)

// Seed data for the public collection endpoints. A fixed source keeps the
// pools stable across restarts so ids survive a client re-fetch.
const seedValue = 42

var instructorNames = [][2]string{
	{"Amelia", "Hartley"}, {"Noah", "Becker"}, {"Priya", "Raman"},
	{"Lucas", "Moreau"}, {"Sofia", "Lindqvist"}, {"Mateo", "Silva"},
	{"Hana", "Kobayashi"}, {"Elif", "Demir"}, {"Liam", "O'Connor"},
	{"Zanele", "Dube"},
}

var productCatalog = []struct {
	name     string
	category string
	price    float64
}{
	{"Mastering Go Concurrency", "Programming", 49.99},
	{"Practical React Native", "Mobile Development", 39.99},
	{"Linear Algebra Essentials", "Mathematics", 29.99},
	{"UX Research Bootcamp", "Design", 59.99},
	{"Data Engineering with Kafka", "Data", 69.99},
	{"Watercolor Landscapes", "Art", 19.99},
	{"Spanish for Travelers", "Language", 24.99},
	{"Kubernetes in Production", "DevOps", 79.99},
	{"Financial Modeling 101", "Business", 44.99},
	{"Music Theory from Zero", "Music", 34.99},
	{"Intro to Machine Learning", "Data", 54.99},
	{"Photography Fundamentals", "Art", 27.99},
	{"Public Speaking Confidence", "Business", 21.99},
	{"Advanced SQL Patterns", "Programming", 42.99},
	{"Yoga for Desk Workers", "Health", 14.99},
	{"Digital Marketing Strategy", "Business", 49.99},
	{"iOS Animations Deep Dive", "Mobile Development", 45.99},
	{"Statistics without Tears", "Mathematics", 31.99},
	{"Figma to Production", "Design", 36.99},
	{"Writing Technical Docs", "Writing", 18.99},
}

func seedInstructors() []models.Instructor {
	rng := rand.New(rand.NewSource(seedValue))
	out := make([]models.Instructor, 0, len(instructorNames))
	for i, n := range instructorNames {
		gender := "female"
		if i%2 == 1 {
			gender = "male"
		}
		username := fmt.Sprintf("%s.%s", lower(n[0]), lower(n[1]))
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(username)).String()
		pic := fmt.Sprintf("https://randomuser.me/api/portraits/%d.jpg", rng.Intn(100))
		out = append(out, models.Instructor{
			Gender: gender,
			Name:   models.InstructorName{Title: "Dr", First: n[0], Last: n[1]},
			Email:  username + "@example.com",
			Login:  models.InstructorLogin{UUID: id, Username: username},
			Picture: models.InstructorPicture{
				Large:     pic,
				Medium:    pic,
				Thumbnail: pic,
			},
			Nat: "US",
		})
	}
	return out
}

func seedProducts() []models.Product {
	rng := rand.New(rand.NewSource(seedValue))
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Product, 0, len(productCatalog))
	for i, p := range productCatalog {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.name)).String()
		img := fmt.Sprintf("https://images.example.com/courses/%d.jpg", i)
		out = append(out, models.Product{
			ID:          id,
			Name:        p.name,
			Description: fmt.Sprintf("A hands-on course: %s.", p.name),
			Price:       p.price,
			Stock:       10 + rng.Intn(90),
			Category:    p.category,
			Brand:       "LearnHub",
			Owner:       "marketplace",
			MainImage: models.ProductImage{
				ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(img)).String(),
				LocalPath: fmt.Sprintf("public/images/%d.jpg", i),
				URL:       img,
			},
			CreatedAt: now.Add(time.Duration(i) * time.Hour),
			UpdatedAt: now.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}

func lower(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "'", ""))
}
