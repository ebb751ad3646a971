package core

import "time"

// Run is the persisted summary of one orchestrator run.
type Run struct {
	ID         string   `gorm:"primaryKey;size:36"`
	Source     string   `gorm:"size:1024"`
	State      RunState `gorm:"index;size:20;default:'idle'"`
	Total      int      `gorm:"default:0"`
	Succeeded  int      `gorm:"default:0"`
	Failed     int      `gorm:"default:0"`
	Skipped    int      `gorm:"default:0"`
	Cancelled  bool     `gorm:"default:false"`
	LastError  string   `gorm:"type:text"`
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// RowOutcome is the persisted result of one record within a run.
type RowOutcome struct {
	ID        string       `gorm:"primaryKey;size:36"`
	RunID     string       `gorm:"index;size:36;not null"`
	RowIndex  int          `gorm:"index;not null"`
	Identity  string       `gorm:"size:255"`
	Status    RowStatus    `gorm:"index;size:20;not null"`
	Detail    string       `gorm:"type:text"`
	Attempts  int          `gorm:"default:0"`
	Chained   bool         `gorm:"default:false"`
	Mode      StrategyMode `gorm:"size:20"`
	CreatedAt time.Time    `gorm:"autoCreateTime"`
}

// Result converts the persisted outcome back into a RowResult.
func (o *RowOutcome) Result() RowResult {
	return RowResult{
		Index:    o.RowIndex,
		Identity: o.Identity,
		Status:   o.Status,
		Detail:   o.Detail,
		Attempts: o.Attempts,
		Chained:  o.Chained,
		Mode:     o.Mode,
	}
}
