// Command lms is a terminal consumer of the client SDK: it logs in, browses
// the catalog and manages bookmarks the way the mobile screens would.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandipan-das-sd/lms/internal/api"
	"github.com/sandipan-das-sd/lms/internal/apierr"
	"github.com/sandipan-das-sd/lms/internal/catalog"
	"github.com/sandipan-das-sd/lms/internal/config"
	"github.com/sandipan-das-sd/lms/internal/logger"
	"github.com/sandipan-das-sd/lms/internal/session"
	"github.com/sandipan-das-sd/lms/internal/storage"
)

const usage = `usage: lms [-config path] <command> [args]

commands:
  register <username> <email> <password> [role]
  login <username> <password>
  logout
  refresh
  profile
  avatar <image-path>
  courses
  search <query>
  bookmark <course-id>
  bookmarks
  enroll <course-id>
  enrolled
`

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Development: cfg.Log.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	kv, err := newStore(cfg)
	if err != nil {
		log.Fatalw("storage init", "err", err)
	}
	client, err := api.New(api.Config{
		BaseURL:            cfg.API.BaseURL,
		Timeout:            cfg.APITimeout,
		BreakerMaxFailures: cfg.Breaker.MaxFailures,
		BreakerInterval:    time.Duration(cfg.Breaker.IntervalSec) * time.Second,
		BreakerTimeout:     time.Duration(cfg.Breaker.TimeoutSec) * time.Second,
	}, log)
	if err != nil {
		log.Fatalw("api client init", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout+5*time.Second)
	defer cancel()

	sess := session.New(ctx, client, kv, log)
	cat := catalog.New(ctx, client, kv, log)

	if err := run(ctx, args, sess, cat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		return storage.NewRedisStore(client, cfg.Storage.Redis.Prefix), nil
	default:
		return storage.NewFileStore(cfg.Storage.Dir)
	}
}

func run(ctx context.Context, args []string, sess *session.Store, cat *catalog.Store) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		if len(rest) < 3 {
			return fmt.Errorf("register needs <username> <email> <password> [role]")
		}
		role := "user"
		if len(rest) > 3 {
			role = rest[3]
		}
		if err := sess.Register(ctx, rest[0], rest[1], rest[2], role); err != nil {
			return fmt.Errorf("%s", apierr.UserMessage(err, "Registration failed. Please try again."))
		}
		fmt.Println("registered; log in to start a session")
		return nil

	case "login":
		if len(rest) != 2 {
			return fmt.Errorf("login needs <username> <password>")
		}
		if err := sess.Login(ctx, rest[0], rest[1]); err != nil {
			return fmt.Errorf("%s", apierr.UserMessage(err, "Login failed. Please try again."))
		}
		fmt.Println("logged in")
		return nil

	case "logout":
		_ = sess.Logout(ctx)
		fmt.Println("logged out")
		return nil

	case "refresh":
		if err := sess.Refresh(ctx); err != nil {
			return fmt.Errorf("session expired: %v", err)
		}
		fmt.Println("tokens rotated")
		return nil

	case "profile":
		user, err := sess.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("%s <%s> role=%s\n", user.Username, user.Email, user.Role)
		if user.Avatar.URL != "" {
			fmt.Printf("avatar: %s\n", user.Avatar.URL)
		}
		return nil

	case "avatar":
		if len(rest) != 1 {
			return fmt.Errorf("avatar needs <image-path>")
		}
		f, err := os.Open(rest[0])
		if err != nil {
			return err
		}
		defer f.Close()
		user, err := sess.UpdateAvatar(ctx, rest[0], f)
		if err != nil {
			return fmt.Errorf("%s", apierr.UserMessage(err, "Avatar update failed. Please try again."))
		}
		fmt.Printf("avatar updated: %s\n", user.Avatar.URL)
		return nil

	case "courses":
		if err := cat.FetchCourses(ctx); err != nil {
			return err
		}
		printCourses(cat)
		return nil

	case "search":
		if len(rest) != 1 {
			return fmt.Errorf("search needs <query>")
		}
		if err := cat.FetchCourses(ctx); err != nil {
			return err
		}
		cat.SetSearchQuery(rest[0])
		printCourses(cat)
		return nil

	case "bookmark":
		if len(rest) != 1 {
			return fmt.Errorf("bookmark needs <course-id>")
		}
		if err := cat.ToggleBookmark(ctx, rest[0]); err != nil {
			return err
		}
		if cat.IsBookmarked(rest[0]) {
			fmt.Println("bookmarked")
		} else {
			fmt.Println("bookmark removed")
		}
		return nil

	case "bookmarks":
		for _, id := range cat.BookmarkedIDs() {
			fmt.Println(id)
		}
		return nil

	case "enroll":
		if len(rest) != 1 {
			return fmt.Errorf("enroll needs <course-id>")
		}
		if err := cat.EnrollCourse(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Println("enrolled")
		return nil

	case "enrolled":
		for _, id := range cat.EnrolledIDs() {
			fmt.Println(id)
		}
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printCourses(cat *catalog.Store) {
	for _, c := range cat.FilteredCourses() {
		marks := ""
		if cat.IsBookmarked(c.ID) {
			marks += " [bookmarked]"
		}
		if cat.IsEnrolled(c.ID) {
			marks += " [enrolled]"
		}
		fmt.Printf("%s  %-34s %8.2f  %s by %s%s\n", c.ID, c.Title, c.Price, c.Category, c.Instructor.Name, marks)
	}
}
