// Package storage is the device-local key-value layer backing session
// credentials and the bookmark/enrollment sets.
package storage

import "context"

// Store reads and writes opaque string values under fixed keys. The second
// return of Get reports whether the key existed.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Keys used by the session and catalog stores.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyBookmarked   = "bookmarkedCourses"
	KeyEnrolled     = "enrolledCourses"
)
