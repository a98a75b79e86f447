package models

import (
	"fmt"
	"strings"
)

type AccountMode string

const (
	AccountPractice AccountMode = "PRACTICE"
	AccountReal     AccountMode = "REAL"
)

func ParseAccountMode(raw string) (AccountMode, error) {
	switch AccountMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case AccountPractice:
		return AccountPractice, nil
	case AccountReal:
		return AccountReal, nil
	default:
		return "", fmt.Errorf("unknown account mode %q", raw)
	}
}

type OrderRequest struct {
	Instrument       string
	Side             Side
	Stake            float64
	TimeframeMinutes int
}

// OrderResult OrderID заполнен только при Accepted.
type OrderResult struct {
	Accepted bool
	OrderID  string
}
