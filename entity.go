package plangen

import "time"

// Entity holds the timestamp pair shared by persisted records.
// UpdatedAt is refreshed by the store on every write and is always
// greater than or equal to CreatedAt.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity returns an Entity with both timestamps set to now (UTC).
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{CreatedAt: now, UpdatedAt: now}
}
