// Package catalog maintains the visible course list and the device-local
// bookmark and enrollment sets.
package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sandipan-das-sd/lms/internal/api"
	"github.com/sandipan-das-sd/lms/internal/models"
	"github.com/sandipan-das-sd/lms/internal/storage"
)

type Store struct {
	api *api.Client
	kv  storage.Store
	log *zap.SugaredLogger

	mu          sync.RWMutex
	courses     []models.Course
	instructors []models.Instructor
	bookmarked  []string
	enrolled    []string
	query       string
	loading     bool
	refreshing  bool

	// generation orders fetch operations so a stale completion cannot
	// overwrite the result of a fetch started later.
	generation uint64
}

// New builds the store and loads the persisted bookmark and enrollment sets.
// Load failures are logged and leave the sets empty; they are not fatal.
func New(ctx context.Context, client *api.Client, kv storage.Store, log *zap.SugaredLogger) *Store {
	s := &Store{api: client, kv: kv, log: log}
	s.bookmarked = s.loadIDSet(ctx, storage.KeyBookmarked)
	s.enrolled = s.loadIDSet(ctx, storage.KeyEnrolled)
	return s
}

func (s *Store) loadIDSet(ctx context.Context, key string) []string {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Errorw("loading id set", "key", key, "err", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.log.Errorw("decoding id set", "key", key, "err", err)
		return nil
	}
	return ids
}

// FetchCourses loads the catalog, toggling the first-load flag.
func (s *Store) FetchCourses(ctx context.Context) error {
	return s.fetch(ctx, false)
}

// RefreshCourses reloads the catalog, toggling the pull-to-refresh flag.
// The logic is otherwise identical to FetchCourses.
func (s *Store) RefreshCourses(ctx context.Context) error {
	return s.fetch(ctx, true)
}

func (s *Store) fetch(ctx context.Context, refresh bool) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if refresh {
		s.refreshing = true
	} else {
		s.loading = true
	}
	s.mu.Unlock()

	var (
		instructors []models.Instructor
		products    []models.Product
	)
	// Both collections load concurrently; either failure cancels the
	// sibling and aborts the whole operation with prior state untouched.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		instructors, err = s.api.RandomUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.api.RandomProducts(gctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if refresh {
		s.refreshing = false
	} else {
		s.loading = false
	}
	if err != nil {
		s.log.Errorw("fetching catalog", "err", err)
		return err
	}
	if gen != s.generation {
		// A fetch started after this one has already won.
		s.log.Debugw("discarding stale catalog result", "generation", gen)
		return nil
	}
	s.instructors = instructors
	s.courses = joinCourses(products, instructors)
	return nil
}

// ToggleBookmark flips membership of the id in the bookmark set. The full
// set is persisted before the in-memory state commits.
func (s *Store) ToggleBookmark(ctx context.Context, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := make([]string, 0, len(s.bookmarked)+1)
	found := false
	for _, id := range s.bookmarked {
		if id == courseID {
			found = true
			continue
		}
		updated = append(updated, id)
	}
	if !found {
		updated = append(updated, courseID)
	}
	if err := s.persistIDSet(ctx, storage.KeyBookmarked, updated); err != nil {
		s.log.Errorw("persisting bookmarks", "err", err)
		return err
	}
	s.bookmarked = updated
	return nil
}

// EnrollCourse adds the id to the enrollment set. Enrolling twice is a
// no-op, not an error; enrollment is never removed.
func (s *Store) EnrollCourse(ctx context.Context, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.enrolled {
		if id == courseID {
			return nil
		}
	}
	updated := append(append([]string{}, s.enrolled...), courseID)
	if err := s.persistIDSet(ctx, storage.KeyEnrolled, updated); err != nil {
		s.log.Errorw("persisting enrollments", "err", err)
		return err
	}
	s.enrolled = updated
	return nil
}

func (s *Store) persistIDSet(ctx context.Context, key string, ids []string) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key, string(b))
}

func (s *Store) IsBookmarked(courseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contains(s.bookmarked, courseID)
}

func (s *Store) IsEnrolled(courseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contains(s.enrolled, courseID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// SetSearchQuery stores the filter string. Filtering itself happens on read.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
}

func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// FilteredCourses recomputes the filtered view from the stored query: a
// case-insensitive substring match over title, description, instructor name
// and category. An empty query returns the full list.
func (s *Store) FilteredCourses() []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.query == "" {
		return append([]models.Course{}, s.courses...)
	}
	q := strings.ToLower(s.query)
	out := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		if strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			strings.Contains(strings.ToLower(c.Instructor.Name), q) ||
			strings.Contains(strings.ToLower(c.Category), q) {
			out = append(out, c)
		}
	}
	return out
}

// CourseByID looks up a course in the current list. The id may be absent
// right after a refresh replaced the list with one that no longer holds it.
func (s *Store) CourseByID(courseID string) (models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.ID == courseID {
			return c, true
		}
	}
	return models.Course{}, false
}

func (s *Store) Courses() []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Course{}, s.courses...)
}

func (s *Store) Instructors() []models.Instructor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Instructor{}, s.instructors...)
}

func (s *Store) BookmarkedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.bookmarked...)
}

func (s *Store) EnrolledIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.enrolled...)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Refreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing
}
