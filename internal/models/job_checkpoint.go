package models

import "time"

// JobCheckpoint persists the id cursor of a batched maintenance run so a
// crashed run resumes where it stopped.
type JobCheckpoint struct {
	RunKey    string     `gorm:"size:100;primaryKey" json:"run_key"`
	Job       string     `gorm:"size:50;not null;index" json:"job"`
	Cursor    string     `gorm:"size:36" json:"cursor"`
	Processed int64      `json:"processed"`
	Affected  int64      `json:"affected"`
	DoneAt    *time.Time `json:"done_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&ConnectionRequest{},
		&Block{},
		&Report{},
		&Photo{},
		&Chat{},
		&ChatMessage{},
		&JobCheckpoint{},
		&SystemLog{},
	}
}
