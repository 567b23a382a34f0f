package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the stored form of a Quote. The pair lives in the key, not the value.
type Record struct {
	Price     string `json:"price"`
	Timestamp string `json:"timestamp"`
}

type rawRecord struct {
	Price     *string `json:"price"`
	Timestamp *string `json:"timestamp"`
}

func RecordFromQuote(q Quote) Record {
	return Record{Price: q.Price, Timestamp: q.Timestamp()}
}

func (r Record) Marshal() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseRecord decodes a stored entry. Only undecodable JSON and a missing or
// null field are rejected; both fields are otherwise kept as free text.
func ParseRecord(raw string) (Record, error) {
	var r rawRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if r.Price == nil || r.Timestamp == nil {
		return Record{}, fmt.Errorf("%w: missing field", ErrMalformedRecord)
	}
	return Record{Price: *r.Price, Timestamp: *r.Timestamp}, nil
}

// Quote rebuilds the observation. A timestamp outside TimestampLayout is
// reported as ErrMalformedRecord.
func (r Record) Quote(pair Pair) (Quote, error) {
	at, err := time.Parse(TimestampLayout, r.Timestamp)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: timestamp %q", ErrMalformedRecord, r.Timestamp)
	}
	return Quote{Pair: pair, Price: r.Price, ObservedAt: at.UTC()}, nil
}
