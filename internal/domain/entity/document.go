package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentRef identifies a document inside a collection without its payload.
type DocumentRef struct {
	ID   string
	Path string
}

// Document is one record from the hierarchical store. Data holds the raw
// payload; callers decode it into a typed shape via Decode.
type Document struct {
	ID   string
	Path string
	Data bson.M
}

// Decode unmarshals the document payload into a typed struct.
func (d *Document) Decode(out any) error {
	raw, err := bson.Marshal(d.Data)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

// CreatedAt returns the document's explicit createdAt field when present.
func (d *Document) CreatedAt() (time.Time, bool) {
	v, ok := d.Data["createdAt"]
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(DateLayout, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
