package domain

import (
	"cmp"
	"fmt"
	"slices"
)

// DuplicatePolicy decides what happens when a station id starts a second,
// non-contiguous run in the same input.
type DuplicatePolicy string

const (
	DuplicateReject DuplicatePolicy = "reject"
	DuplicateKeep   DuplicatePolicy = "keep"
	DuplicateMerge  DuplicatePolicy = "merge"
)

// ParseDuplicatePolicy validates a policy name.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(s); p {
	case DuplicateReject, DuplicateKeep, DuplicateMerge:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Collection is an ordered set of station records, in the order each station
// was first encountered.
type Collection struct {
	policy  DuplicatePolicy
	records []Record
	index   map[int]int // station id -> position of its first record
}

// NewCollection creates an empty collection. An empty policy means DuplicateReject.
func NewCollection(policy DuplicatePolicy) *Collection {
	if policy == "" {
		policy = DuplicateReject
	}
	return &Collection{
		policy: policy,
		index:  make(map[int]int),
	}
}

// Add appends a finalized record, applying the duplicate policy when its
// station id already has a record.
func (c *Collection) Add(rec Record) error {
	pos, seen := c.index[rec.StationID]
	if !seen {
		c.index[rec.StationID] = len(c.records)
		c.records = append(c.records, rec)
		return nil
	}

	switch c.policy {
	case DuplicateKeep:
		c.records = append(c.records, rec)
	case DuplicateMerge:
		merged := &c.records[pos]
		for i, v := range rec.Days {
			if v != Missing {
				merged.Days[i] = v
			}
		}
	default:
		return fmt.Errorf("station %d: %w", rec.StationID, ErrDuplicateStation)
	}
	return nil
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.records)
}

// Records returns a copy of the records in collection order.
func (c *Collection) Records() []Record {
	return slices.Clone(c.records)
}

// StationIDs returns the station id of every record in collection order.
func (c *Collection) StationIDs() []int {
	ids := make([]int, len(c.records))
	for i := range c.records {
		ids[i] = c.records[i].StationID
	}
	return ids
}

// HasDuplicates reports whether any station id occurs in more than one record.
func (c *Collection) HasDuplicates() bool {
	return len(c.index) != len(c.records)
}

// Sorted returns a new collection with the records ordered by station id.
// The sort is stable, so duplicate runs kept under DuplicateKeep stay in input order.
func (c *Collection) Sorted() *Collection {
	out := NewCollection(c.policy)
	out.records = c.Records()
	slices.SortStableFunc(out.records, func(a, b Record) int {
		return cmp.Compare(a.StationID, b.StationID)
	})
	for i := len(out.records) - 1; i >= 0; i-- {
		out.index[out.records[i].StationID] = i
	}
	return out
}
