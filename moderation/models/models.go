package models

import (
	"time"
)

type Severity string

const (
	SeverityLow      = Severity("low")
	SeverityMedium   = Severity("medium")
	SeverityHigh     = Severity("high")
	SeverityCritical = Severity("critical")
)

type BanReason string

const (
	BanReasonMultipleViolations   = BanReason("multiple_violations")
	BanReasonSpam                 = BanReason("spam")
	BanReasonHarassment           = BanReason("harassment")
	BanReasonInappropriateContent = BanReason("inappropriate_content")
	BanReasonOther                = BanReason("other")
)

type BanDuration string

const (
	BanDurationHour      = BanDuration("1h")
	BanDurationDay       = BanDuration("1d")
	BanDurationWeek      = BanDuration("7d")
	BanDurationMonth     = BanDuration("30d")
	BanDurationPermanent = BanDuration("permanent")
)

type ModAction string

const (
	ModActionBanIssued      = ModAction("ban_issued")
	ModActionBanRemoved     = ModAction("ban_removed")
	ModActionWarningIssued  = ModAction("warning_issued")
	ModActionWarningRemoved = ModAction("warning_removed")
)

// Closed set of entity kinds a moderation log entry can point at. The ID is
// kept opaque; resolving it is up to the caller.
type SubjectKind string

const (
	SubjectUser    = SubjectKind("user")
	SubjectWarning = SubjectKind("warning")
	SubjectBan     = SubjectKind("ban")
	SubjectArticle = SubjectKind("article")
	SubjectComment = SubjectKind("comment")
	SubjectBackup  = SubjectKind("backup")
)

type Warning struct {
	ID uint64 `gorm:"column:id;primarykey"`

	// the user receiving the warning; not a foreign key, users live elsewhere
	UserID   uint64   `gorm:"column:user_id;index;not null"`
	IssuedBy uint64   `gorm:"column:issued_by;not null"`
	Severity Severity `gorm:"column:severity;not null"`
	Reason   string   `gorm:"column:reason;type:text"`

	// opaque reference to the content which triggered the warning (eg, "article:42")
	RelatedContent string `gorm:"column:related_content"`

	// only active warnings count toward escalation
	Active bool `gorm:"column:active;index;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Warning) TableName() string {
	return "warnings"
}

type Ban struct {
	ID       uint64      `gorm:"column:id;primarykey"`
	UserID   uint64      `gorm:"column:user_id;index;not null"`
	BannedBy uint64      `gorm:"column:banned_by;not null"`
	Reason   BanReason   `gorm:"column:reason;not null"`
	Duration BanDuration `gorm:"column:duration;not null"`

	// nil for permanent bans
	ExpiresAt *time.Time `gorm:"column:expires_at"`

	Active bool   `gorm:"column:active;index;not null"`
	Notes  string `gorm:"column:notes;type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Ban) TableName() string {
	return "bans"
}

// Append-only audit record. Rows are only ever removed by the retention purge.
type ModLogEntry struct {
	ID           uint64      `gorm:"column:id;primarykey"`
	ModeratorID  uint64      `gorm:"column:moderator_id;index;not null"`
	TargetUserID uint64      `gorm:"column:target_user_id;index;not null"`
	Action       ModAction   `gorm:"column:action;not null"`
	SubjectKind  SubjectKind `gorm:"column:subject_kind"`
	SubjectID    string      `gorm:"column:subject_id"`
	Details      Details     `gorm:"column:details;type:text"`
	CreatedAt    time.Time   `gorm:"column:created_at;index"`
}

func (ModLogEntry) TableName() string {
	return "mod_log_entries"
}
