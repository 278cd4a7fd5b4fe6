package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameTaken   = errors.New("username is already taken by another user")
	ErrEmailTaken      = errors.New("email is already taken by another user")
)

// Profile is the public account record of a user. Credentials live with the
// identity provider and never pass through here.
type Profile struct {
	UserID    int       `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileInput is a partial update; nil fields keep their current value.
type ProfileInput struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// ProfileValidationError carries every field problem found in a ProfileInput.
type ProfileValidationError struct {
	Fields map[string]string
}

func (e *ProfileValidationError) Error() string {
	return "invalid profile payload"
}

// ProfileRepository stores one profile per user. Usernames and emails are
// unique across users.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID int) (Profile, error)
	// SaveProfile creates or replaces the user's profile. A username or email
	// held by another user yields ErrUsernameTaken or ErrEmailTaken.
	SaveProfile(ctx context.Context, p Profile) (Profile, error)
}

type InMemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[int]Profile
}

func NewInMemoryProfileRepository(seed []Profile) *InMemoryProfileRepository {
	r := &InMemoryProfileRepository{profiles: make(map[int]Profile, len(seed))}
	for _, p := range seed {
		r.profiles[p.UserID] = p
	}
	return r
}

func (r *InMemoryProfileRepository) GetProfile(ctx context.Context, userID int) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (r *InMemoryProfileRepository) SaveProfile(ctx context.Context, p Profile) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, other := range r.profiles {
		if id == p.UserID {
			continue
		}
		if other.Username == p.Username {
			return Profile{}, ErrUsernameTaken
		}
		if other.Email == p.Email {
			return Profile{}, ErrEmailTaken
		}
	}

	now := time.Now().UTC()
	if existing, ok := r.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.profiles[p.UserID] = p
	return p, nil
}

// applyProfileInput trims and normalises the provided fields onto p and
// reports all problems at once. Both fields are required once merged.
func applyProfileInput(p *Profile, in ProfileInput) error {
	if in.Username != nil {
		p.Username = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		p.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}

	errs := map[string]string{}
	switch n := utf8.RuneCountInString(p.Username); {
	case n == 0:
		errs["username"] = "username is required"
	case n < 3:
		errs["username"] = "username must be at least 3 characters"
	case n > 30:
		errs["username"] = "username must be at most 30 characters"
	}
	switch {
	case p.Email == "":
		errs["email"] = "email is required"
	case len(p.Email) > 254 || !strings.Contains(p.Email, "@") || strings.ContainsAny(p.Email, " \t"):
		errs["email"] = "email is not valid"
	}
	if len(errs) > 0 {
		return &ProfileValidationError{Fields: errs}
	}
	return nil
}
