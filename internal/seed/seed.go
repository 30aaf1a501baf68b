// Package seed creates demo data for development environments: a handful
// of users with a follow mesh, posts spread over recent days, and organic
// looking likes and comments.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"photogram/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls the size and shape of the generated data set.
type Options struct {
	Users           int
	PostsPerUser    int
	MaxDaysBack     int
	FollowChance    float64
	LikeChance      float64
	CommentChance   float64
	DefaultPassword string
}

// DefaultOptions is a data set small enough to seed in seconds but large
// enough to make the feed look alive.
func DefaultOptions() Options {
	return Options{
		Users:           10,
		PostsPerUser:    5,
		MaxDaysBack:     30,
		FollowChance:    0.4,
		LikeChance:      0.3,
		CommentChance:   0.2,
		DefaultPassword: "password123",
	}
}

// Seeder generates and persists demo data.
type Seeder struct {
	db   *gorm.DB
	opts Options
	rand *rand.Rand
}

// New creates a Seeder bound to db.
func New(db *gorm.DB, opts Options) *Seeder {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Seeder{db: db, opts: opts, rand: rand.New(rand.NewSource(seed))}
}

// Run generates the full data set: users, follow mesh, posts, likes and
// comments. All users share the configured default password so any of them
// can be used to log in.
func (s *Seeder) Run() error {
	users, err := s.createUsers()
	if err != nil {
		return err
	}
	if err := s.createFollowMesh(users); err != nil {
		return err
	}
	posts, err := s.createPosts(users)
	if err != nil {
		return err
	}
	if err := s.createEngagement(users, posts); err != nil {
		return err
	}
	return nil
}

func (s *Seeder) createUsers() ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.opts.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		user := &models.User{
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			PasswordHash: string(hash),
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) createFollowMesh(users []*models.User) error {
	for _, follower := range users {
		for _, followed := range users {
			if follower.ID == followed.ID {
				continue
			}
			if s.rand.Float64() >= s.opts.FollowChance {
				continue
			}
			follow := &models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
			if err := s.db.Create(follow).Error; err != nil {
				return fmt.Errorf("create follow: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) createPosts(users []*models.User) ([]*models.Post, error) {
	maxDays := s.opts.MaxDaysBack
	if maxDays <= 0 {
		maxDays = 30
	}

	var posts []*models.Post
	for _, user := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			post := &models.Post{
				Caption: gofakeit.Sentence(s.rand.Intn(12) + 3),
				UserID:  user.ID,
				// Spread creation times so the feed ordering is visible.
				CreatedAt: time.Now().Add(-time.Duration(s.rand.Intn(maxDays*24)) * time.Hour),
			}
			if err := s.db.Create(post).Error; err != nil {
				return nil, fmt.Errorf("create post: %w", err)
			}
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (s *Seeder) createEngagement(users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		for _, user := range users {
			if s.rand.Float64() < s.opts.LikeChance {
				like := &models.Like{UserID: user.ID, PostID: post.ID}
				if err := s.db.Create(like).Error; err != nil {
					return fmt.Errorf("create like: %w", err)
				}
			}
			if s.rand.Float64() < s.opts.CommentChance {
				comment := &models.Comment{
					Text:   gofakeit.Sentence(s.rand.Intn(8) + 2),
					UserID: user.ID,
					PostID: post.ID,
				}
				if err := s.db.Create(comment).Error; err != nil {
					return fmt.Errorf("create comment: %w", err)
				}
			}
		}
	}
	return nil
}
