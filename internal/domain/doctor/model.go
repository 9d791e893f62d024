package doctor

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/triage"
)

// ErrNotFound is returned when no doctor exists for an id.
var ErrNotFound = errors.New("doctor not found")

// Doctor is a clinician account. PIN never leaves the service layer.
type Doctor struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	Tier      triage.Tier `db:"role_tier" json:"role_tier"`
	PIN       string      `db:"pin_code" json:"-"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
