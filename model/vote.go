package model

import "time"

// Dashboard sections that accept feedback votes.
const (
	SectionNews   = "news"
	SectionPrices = "prices"
	SectionAI     = "ai"
	SectionMeme   = "meme"
)

// Vote values accepted from the client. VoteNone is a nullifying request,
// never stored.
const (
	VoteUp   = "up"
	VoteDown = "down"
	VoteNone = "none"
)

// AllowedSections lists every votable dashboard section.
var AllowedSections = []string{SectionNews, SectionPrices, SectionAI, SectionMeme}

// AllowedVotes lists every accepted vote value.
var AllowedVotes = []string{VoteUp, VoteDown, VoteNone}

// IsValidSection reports whether s names a votable section.
func IsValidSection(s string) bool {
	for _, v := range AllowedSections {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidVote reports whether v is an accepted vote value.
func IsValidVote(v string) bool {
	for _, a := range AllowedVotes {
		if a == v {
			return true
		}
	}
	return false
}

// Vote stores a user's up/down feedback for one dashboard section.
// Last write wins; at most one row per (user, section).
type Vote struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UserID    int64     `json:"-" gorm:"column:user_id;uniqueIndex:uq_user_section;not null"`
	Section   string    `json:"section" gorm:"size:20;uniqueIndex:uq_user_section;not null"`
	Vote      string    `json:"vote" gorm:"size:10;not null"`
	UpdatedAt time.Time `json:"updatedAt"`
}
