package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringList stores a []string as a JSON column so GORM can scan it directly.
type StringList []string

// Scan implements the sql.Scanner interface.
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*s = nil
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Preference holds a user's onboarding choices. At most one row per user,
// replaced wholesale on every save.
type Preference struct {
	ID           uint       `json:"-" gorm:"primaryKey"`
	UserID       int64      `json:"-" gorm:"column:user_id;uniqueIndex;not null"`
	Assets       StringList `json:"assets" gorm:"type:text"`
	InvestorType string     `json:"investorType" gorm:"size:50;not null"`
	Content      StringList `json:"content" gorm:"type:text"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
