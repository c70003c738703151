package catalog

import (
	"strconv"

	"github.com/sandipan-das-sd/lms/internal/models"
)

// joinCourses attaches instructors to products by index modulo. The pairing
// is synthetic display data, not a real relationship; it is recomputed on
// every fetch and never persisted.
func joinCourses(products []models.Product, instructors []models.Instructor) []models.Course {
	courses := make([]models.Course, 0, len(products))
	for i, p := range products {
		course := models.Course{
			ID:          p.ID,
			Title:       p.Name,
			Description: p.Description,
			Price:       p.Price,
			Thumbnail:   p.MainImage.URL,
			Category:    p.Category,
			Stock:       p.Stock,
			Instructor: models.CourseInstructor{
				Name: "Unknown Instructor",
			},
		}
		if course.ID == "" {
			course.ID = generatedID(i)
		}
		if course.Title == "" {
			course.Title = "Untitled Course"
		}
		if course.Description == "" {
			course.Description = "No description available"
		}
		if course.Category == "" {
			course.Category = "General"
		}
		if len(instructors) > 0 {
			inst := instructors[i%len(instructors)]
			course.Instructor = models.CourseInstructor{
				Name:   inst.Name.First + " " + inst.Name.Last,
				Avatar: inst.Picture.Medium,
			}
		}
		courses = append(courses, course)
	}
	return courses
}

func generatedID(index int) string {
	return "product-" + strconv.Itoa(index)
}
