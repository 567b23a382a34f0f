package domain

import "strings"

type Pair string

const historyKeyPrefix = "history:"

// LatestKey is the store key of the latest-price record.
func (p Pair) LatestKey() string { return string(p) }

// HistoryKey is the store key of the capped history list.
func (p Pair) HistoryKey() string { return historyKeyPrefix + string(p) }

func ValidatePair(p string) bool {
	return strings.TrimSpace(p) != "" && !strings.ContainsAny(p, " \t\r\n")
}
