package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report is an uploaded QC report stored in MongoDB.
type Report struct {
	ID           primitive.ObjectID `json:"id"             bson:"_id,omitempty"`
	ReportHash   string             `json:"report_hash"    bson:"report_hash"`
	UserID       int64              `json:"user_id"        bson:"user_id"`
	Title        string             `json:"title"          bson:"title"`
	RawObjectKey string             `json:"raw_object_key" bson:"raw_object_key"`
	CreatedAt    time.Time          `json:"created_at"     bson:"created_at"`
	UploadedAt   time.Time          `json:"uploaded_at"    bson:"uploaded_at"`
}

// PlotConfig describes one plot available for a report section.
type PlotConfig struct {
	ID      primitive.ObjectID `json:"id"      bson:"_id,omitempty"`
	Name    string             `json:"name"    bson:"name"`
	Section string             `json:"section" bson:"section"`
	Type    string             `json:"type"    bson:"type"`
	Config  map[string]any     `json:"config"  bson:"config"`
}
