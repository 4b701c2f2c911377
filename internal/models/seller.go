package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MonitorKind selects which side of a storefront is being watched:
// freshly published listings or completed sales.
type MonitorKind string

const (
	KindListings MonitorKind = "listings"
	KindSales    MonitorKind = "sales"
)

// ParseMonitorKind validates a user-supplied kind string.
func ParseMonitorKind(s string) (MonitorKind, error) {
	switch MonitorKind(s) {
	case KindListings, KindSales:
		return MonitorKind(s), nil
	}
	return "", fmt.Errorf("unknown monitor kind %q (want %q or %q)", s, KindListings, KindSales)
}

// TrackedSeller is one storefront watched for one kind of change.
// The same storefront may appear twice, once per kind; the pair
// (Handle, Kind) is unique across the collection.
type TrackedSeller struct {
	StoreName     string      `db:"store_name"`
	Handle        string      `db:"handle"`
	Kind          MonitorKind `db:"kind"`
	KnownItemIDs  IDSet       `db:"known_item_ids"`
	LastCheckedAt *time.Time  `db:"last_checked_at"`
	AddedAt       time.Time   `db:"added_at"`
}

// IDSet is the set of item ids already surfaced for a seller+kind.
// It grows monotonically; ids are never evicted. Stored as a JSON
// array in the sellers table.
type IDSet map[string]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Value implements driver.Valuer, serializing the set as a JSON array.
func (s IDSet) Value() (driver.Value, error) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return json.Marshal(ids)
}

// Scan implements sql.Scanner for the JSON array column.
func (s *IDSet) Scan(value interface{}) error {
	if value == nil {
		*s = IDSet{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for IDSet")
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
