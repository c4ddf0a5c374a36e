package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxUsernameLength = 64

// Player owns a set of skill levels. Identity is supplied by the caller;
// the engine does not authenticate.
type Player struct {
	ID          uuid.UUID   `json:"id"`
	Username    string      `json:"username"`
	SkillLevels SkillLevels `json:"skillLevels"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewPlayer creates a player with the default level for every game type.
func NewPlayer(id uuid.UUID, username string, now time.Time) (*Player, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Player{
		ID:          id,
		Username:    username,
		SkillLevels: NewSkillLevels(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
