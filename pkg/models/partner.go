package models

import "time"

// Connection statuses stored on a partner row.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusBlocked  = "blocked"
)

type SearchFilters struct {
	Location             string `json:"location,omitempty"`
	FitnessLevel         string `json:"fitness_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	MinAge               *int   `json:"min_age,omitempty" validate:"omitempty,min=1,max=120"`
	MaxAge               *int   `json:"max_age,omitempty" validate:"omitempty,min=1,max=120"`
	PreferredWorkoutTime string `json:"preferred_workout_time,omitempty"`
}

type SearchRequest struct {
	UserID  string        `json:"user_id" validate:"required"`
	Filters SearchFilters `json:"filters"`
}

type ConnectRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	PartnerID string `json:"partner_id" validate:"required,nefield=UserID"`
	Message   string `json:"message,omitempty" validate:"max=1000"`
}

type RespondRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	PartnerID string `json:"partner_id" validate:"required"`
	Response  string `json:"response" validate:"required"`
}

type InteractionRequest struct {
	UserID           string   `json:"user_id" validate:"required"`
	TargetUserID     string   `json:"target_user_id" validate:"required,nefield=UserID"`
	InteractionType  string   `json:"interaction_type" validate:"required,oneof=view like message workout_together block"`
	InteractionValue *float64 `json:"interaction_value,omitempty"`
}

// NewConnection is a pending partner request ready to be stored.
type NewConnection struct {
	UserID       string
	PartnerID    string
	Message      string
	Score        float64
	MatchFactors []string
}

// Match is an accepted partner connection joined with the partner's profile.
type Match struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Age                *int       `json:"age"`
	Location           string     `json:"location"`
	FitnessLevel       string     `json:"fitness_level"`
	Goals              []string   `json:"goals"`
	Bio                string     `json:"bio"`
	CompatibilityScore float64    `json:"compatibility_score"`
	MatchFactors       []string   `json:"match_factors"`
	LastInteraction    *time.Time `json:"last_interaction"`
}

type MatchesResponse struct {
	Success bool    `json:"success"`
	Matches []Match `json:"matches"`
	Total   int     `json:"total"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// InteractionEvent is published on the partner interaction stream after every write.
type InteractionEvent struct {
	EventID   string    `json:"event_id"`
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	Kind      string    `json:"kind"`
	Weight    float64   `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
}
