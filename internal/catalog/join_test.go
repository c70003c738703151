package catalog

import (
	"testing"

	"github.com/sandipan-das-sd/lms/internal/models"
)

func inst(first, last string) models.Instructor {
	return models.Instructor{
		Name:    models.InstructorName{First: first, Last: last},
		Picture: models.InstructorPicture{Medium: "https://img/" + first},
	}
}

func prod(id, name string) models.Product {
	return models.Product{ID: id, Name: name, Description: "d", Category: "c"}
}

func TestJoinAssignsInstructorsByIndexModulo(t *testing.T) {
	instructors := []models.Instructor{inst("A", "One"), inst("B", "Two")}
	products := []models.Product{prod("p0", "P0"), prod("p1", "P1"), prod("p2", "P2")}

	courses := joinCourses(products, instructors)
	if len(courses) != 3 {
		t.Fatalf("expected 3 courses, got %d", len(courses))
	}
	if courses[0].Instructor.Name != "A One" || courses[2].Instructor.Name != "A One" {
		t.Fatalf("p0 and p2 should get instructor A, got %q and %q",
			courses[0].Instructor.Name, courses[2].Instructor.Name)
	}
	if courses[1].Instructor.Name != "B Two" {
		t.Fatalf("p1 should get instructor B, got %q", courses[1].Instructor.Name)
	}
}

func TestJoinWithoutInstructors(t *testing.T) {
	courses := joinCourses([]models.Product{prod("p0", "P0")}, nil)
	if courses[0].Instructor.Name != "Unknown Instructor" {
		t.Fatalf("expected placeholder instructor, got %q", courses[0].Instructor.Name)
	}
	if courses[0].Instructor.Avatar != "" {
		t.Fatalf("expected empty avatar, got %q", courses[0].Instructor.Avatar)
	}
}

func TestJoinFieldFallbacks(t *testing.T) {
	courses := joinCourses([]models.Product{{}}, nil)
	c := courses[0]
	if c.ID != "product-0" {
		t.Fatalf("id fallback: got %q", c.ID)
	}
	if c.Title != "Untitled Course" {
		t.Fatalf("title fallback: got %q", c.Title)
	}
	if c.Description != "No description available" {
		t.Fatalf("description fallback: got %q", c.Description)
	}
	if c.Category != "General" {
		t.Fatalf("category fallback: got %q", c.Category)
	}
}
