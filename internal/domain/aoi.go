package domain

import "time"

// AOI is a stored area of interest swept by the scheduled monitor. Displacement
// samples are kept separately and attached when an assessment needs history.
type AOI struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Geometry  Geometry  `json:"geometry"`
	CreatedAt time.Time `json:"created_at"`
}
