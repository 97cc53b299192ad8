package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Embeddings maps a person name to the vectors extracted from their captures.
type Embeddings map[string][][]float64

// Value marshals embeddings into JSONB.
func (e Embeddings) Value() (driver.Value, error) {
	if e == nil {
		e = Embeddings{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal embeddings: %w", err)
	}
	return data, nil
}

// Scan reads JSONB embeddings.
func (e *Embeddings) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan embeddings: %w", err)
	}
	out := Embeddings{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("scan embeddings: %w", err)
		}
	}
	*e = out
	return nil
}

// EmbeddingSet is the single stored embeddings document.
type EmbeddingSet struct {
	ID          string     `db:"id" json:"id"`
	Embeddings  Embeddings `db:"embeddings" json:"embeddings"`
	LastUpdated time.Time  `db:"last_updated" json:"last_updated"`
}

// FaceImage is one capture forwarded to the recognition service.
type FaceImage struct {
	PersonName string `json:"personName"`
	ImageName  string `json:"imageName"`
	ImageData  string `json:"imageData"`
}

// StudentImages groups captures by student for embedding extraction.
type StudentImages struct {
	PersonName string      `json:"person_name"`
	Images     []FaceImage `json:"images"`
}
