package models

import (
	"time"

	"camionback/services/workflow"
)

type City struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Story is a marketing banner shown in the mobile apps.
type Story struct {
	ID           string    `bson:"id" json:"id"`
	Title        string    `bson:"title" json:"title"`
	Content      string    `bson:"content" json:"content"`
	MediaURL     string    `bson:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	Audience     string    `bson:"audience" json:"audience"`
	IsActive     bool      `bson:"isActive" json:"isActive"`
	DisplayOrder int       `bson:"displayOrder" json:"displayOrder"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CoordinationStatusConfig is an admin-defined coordination tag.
type CoordinationStatusConfig struct {
	ID           string            `bson:"id" json:"id"`
	Value        string            `bson:"value" json:"value"`
	Label        string            `bson:"label" json:"label"`
	Category     workflow.Category `bson:"category" json:"category"`
	DisplayOrder int               `bson:"displayOrder" json:"displayOrder"`
	IsActive     bool              `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// AdminSettings is the single row of platform parameters.
type AdminSettings struct {
	ID             string    `bson:"id" json:"id"`
	CommissionRate float64   `bson:"commissionRate" json:"commissionRate"`
	UpdatedBy      string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

const SettingsID = "global"

// LegalSection is one legal document shown in the apps.
type LegalSection struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	Audience Role   `json:"audience"` // RoleNone targets everyone
	Version  string `json:"version"`
	Updated  string `json:"updated"`
}
