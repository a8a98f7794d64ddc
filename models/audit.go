package models

import "time"

// CoordinatorLog is one entry of the staff audit trail.
type CoordinatorLog struct {
	ID            string            `bson:"id" json:"id"`
	CoordinatorID string            `bson:"coordinatorId" json:"coordinatorId"`
	Action        string            `bson:"action" json:"action"`
	TargetType    string            `bson:"targetType" json:"targetType"`
	TargetID      string            `bson:"targetId" json:"targetId"`
	Details       map[string]string `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt     time.Time         `bson:"createdAt" json:"createdAt"`
}

// RequestNote is an internal staff note attached to a request.
type RequestNote struct {
	ID         string    `bson:"id" json:"id"`
	RequestID  string    `bson:"requestId" json:"requestId"`
	AuthorID   string    `bson:"authorId" json:"authorId"`
	AuthorRole Role      `bson:"authorRole" json:"authorRole"`
	Content    string    `bson:"content" json:"content"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// SmsHistory records an outbound SMS campaign or single message.
type SmsHistory struct {
	ID             string    `bson:"id" json:"id"`
	SenderID       string    `bson:"senderId,omitempty" json:"senderId,omitempty"`
	TargetAudience string    `bson:"targetAudience" json:"targetAudience"`
	Message        string    `bson:"message" json:"message"`
	RecipientCount int       `bson:"recipientCount" json:"recipientCount"`
	FailedCount    int       `bson:"failedCount" json:"failedCount"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
)

// Report is a dispute raised on a request.
type Report struct {
	ID             string       `bson:"id" json:"id"`
	RequestID      string       `bson:"requestId" json:"requestId"`
	ReporterID     string       `bson:"reporterId" json:"reporterId"`
	ReporterRole   Role         `bson:"reporterRole" json:"reporterRole"`
	ReportedUserID string       `bson:"reportedUserId,omitempty" json:"reportedUserId,omitempty"`
	Type           string       `bson:"type" json:"type"`
	Description    string       `bson:"description" json:"description"`
	Status         ReportStatus `bson:"status" json:"status"`
	AdminNotes     string       `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	ResolvedAt     *time.Time   `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt      time.Time    `bson:"createdAt" json:"createdAt"`
}
