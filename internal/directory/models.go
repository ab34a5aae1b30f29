// Package directory holds the reconciled catalogue of traded companies.
package directory

import (
	"slices"
	"time"
)

// Exchange identifies a listing source.
type Exchange string

const (
	ExchangeBSE Exchange = "BSE"
	ExchangeNSE Exchange = "NSE"
)

// Company is one directory entry, keyed by ISIN. The ISIN is immutable
// once assigned; ListedOn only ever grows.
type Company struct {
	ISIN       string
	ScripCode  string
	Name       string
	Status     string
	Industry   string
	FaceValue  float64
	MarketCap  float64
	Symbol     string
	Segment    string
	ListedOn   []Exchange
	SyncedAt   time.Time
}

// ListedOnExchange reports whether the company is already marked as listed
// on the given exchange.
func (c *Company) ListedOnExchange(ex Exchange) bool {
	return slices.Contains(c.ListedOn, ex)
}

// AddExchange unions the exchange into ListedOn, preserving set semantics.
func (c *Company) AddExchange(ex Exchange) {
	if !c.ListedOnExchange(ex) {
		c.ListedOn = append(c.ListedOn, ex)
	}
}
