package models

import "time"

// ProfilePayload is the kind-specific document for KindProfile entities.
// Handle is the stable natural key used to find-or-create the remote record.
type ProfilePayload struct {
	Handle      string  `json:"handle"`
	DisplayName string  `json:"display_name"`
	WeightKg    float64 `json:"weight_kg,omitempty"`
	HeightCm    float64 `json:"height_cm,omitempty"`
}

// MealPayload is the kind-specific document for KindMeal entities.
type MealPayload struct {
	Name     string    `json:"name"`
	Calories float64   `json:"calories"`
	ProteinG float64   `json:"protein_g"`
	CarbsG   float64   `json:"carbs_g"`
	FatG     float64   `json:"fat_g"`
	EatenAt  time.Time `json:"eaten_at"`
}

// ReadingPayload is the kind-specific document for KindReading entities.
// Value is a blood glucose reading in mmol/L.
type ReadingPayload struct {
	Value      float64   `json:"value"`
	MeasuredAt time.Time `json:"measured_at"`
}

// ScanPayload is the kind-specific document for KindScan entities, produced
// by the external vision-analysis pipeline from a meal photo.
type ScanPayload struct {
	ImageRef        string    `json:"image_ref"`
	Label           string    `json:"label"`
	Confidence      float64   `json:"confidence"`
	CalorieEstimate float64   `json:"calorie_estimate"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}
