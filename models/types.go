package models

import "time"

// Account roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity kinds
const (
	KindAnonymous = "anonymous"
	KindAccount   = "account"
)

// Points reasons
const (
	ReasonVoteCast    = "vote_cast"
	ReasonAdminAward  = "admin_award"
	ReasonAdminAdjust = "admin_adjust"
)

// Badge types
const (
	BadgeVoter  = "voter"
	BadgeStreak = "streak"
	BadgePoints = "points"
)

// Request types

type CreateTeacherRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Schedule    string   `json:"schedule"`
	Tags        []string `json:"tags"`
}

type UpdateTeacherRequest = CreateTeacherRequest

type SubmitVoteRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type UpdateVoteRequest = SubmitVoteRequest

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest = RegisterRequest

type CreateAdminRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Permissions []string `json:"permissions"`
}

type AwardPointsRequest struct {
	Reason string `json:"reason"`
	Delta  int64  `json:"delta"`
}

// Balance is a pointer so a missing field is distinguishable from zero
type AdjustPointsRequest struct {
	Balance *int64 `json:"balance"`
}

type LockAccountRequest struct {
	DurationMinutes int `json:"duration_minutes"`
}

type GrantPermissionRequest struct {
	Permission string `json:"permission"`
}

// Response types

// AnonToken is set only when the request created a new anonymous identity
type CsrfResponse struct {
	CsrfToken string `json:"csrf_token"`
	AnonToken string `json:"anon_token,omitempty"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	CsrfToken string    `json:"csrf_token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   Account   `json:"account"`
}

type MeResponse struct {
	Account     Account  `json:"account"`
	Balance     int64    `json:"balance"`
	Badges      []Badge  `json:"badges"`
	Permissions []string `json:"permissions,omitempty"`
}

type SubmitVoteResponse struct {
	Vote          Vote           `json:"vote"`
	Aggregate     *AggregateView `json:"aggregate,omitempty"`
	PointsAwarded int64          `json:"points_awarded"`
	NewBadges     []Badge        `json:"new_badges"`
}

type VoteResponse struct {
	Vote      *Vote         `json:"vote,omitempty"`
	Aggregate AggregateView `json:"aggregate"`
}

type HasVotedResponse struct {
	HasVoted bool    `json:"has_voted"`
	VoteID   *string `json:"vote_id,omitempty"`
}

type ListTeachersResponse struct {
	Teachers []TeacherWithAggregate `json:"teachers"`
}

type TeacherWithAggregate struct {
	Teacher   Teacher       `json:"teacher"`
	Aggregate AggregateView `json:"aggregate"`
}

type ListVotesResponse struct {
	Votes []Vote `json:"votes"`
}

type PointsResponse struct {
	AccountID    string              `json:"account_id"`
	Balance      int64               `json:"balance"`
	Transactions []PointsTransaction `json:"transactions,omitempty"`
	NewBadges    []Badge             `json:"new_badges,omitempty"`
}

type PermissionsResponse struct {
	AccountID   string   `json:"account_id"`
	Permissions []string `json:"permissions"`
}

type CreateAdminResponse struct {
	Account     Account  `json:"account"`
	Permissions []string `json:"permissions"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Domain types

type Teacher struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Vote struct {
	ID           string    `json:"id"`
	TeacherID    string    `json:"teacher_id"`
	Identity     string    `json:"-"` // Never expose in JSON
	IdentityKind string    `json:"identity_kind"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	IsExplicit   bool      `json:"is_explicit"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AggregateView is derived from the live vote set on every read.
// AverageRating is nil when RatingCount is zero.
type AggregateView struct {
	TeacherID     string         `json:"teacher_id"`
	AverageRating *float64       `json:"average_rating"`
	RatingCount   int            `json:"rating_count"`
	Distribution  map[string]int `json:"distribution"` // "1".."5" -> count
}

type PointsTransaction struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"account_id"`
	Reason    string    `json:"reason"`
	Delta     int64     `json:"delta"`
	CreatedAt time.Time `json:"created_at"`
}

type Badge struct {
	AccountID string    `json:"account_id"`
	BadgeType string    `json:"badge_type"`
	Level     int       `json:"level"`
	AwardedAt time.Time `json:"awarded_at"`
}

type AccountLock struct {
	AccountID        string    `json:"account_id"`
	IsLocked         bool      `json:"is_locked"`
	LockedUntil      time.Time `json:"locked_until,omitempty"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
