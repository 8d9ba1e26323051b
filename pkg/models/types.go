package models

import (
	"time"
)

/*
LOAD → raw records as returned by the order repository.
*/

// LineItem is one purchased item of an order. DurationSpec is the free-form
// supply duration ("14 Days", "1 Month"), nil when the item carries none.
type LineItem struct {
	DurationSpec *string
}

// OrderRecord is an order as read from the order store. CustomerKey is already
// normalized and never empty.
type OrderRecord struct {
	CustomerKey   string
	OccurredAt    time.Time
	Amount        float64
	AgentAssisted bool
	LineItems     []LineItem
}

// OrderFilter narrows a repository fetch. Zero From/To mean unbounded, both
// bounds are inclusive. An empty CustomerKeys slice means every customer.
type OrderFilter struct {
	CustomerKeys []string
	From         time.Time
	To           time.Time
}

// CustomerHistory groups one customer's orders, sorted by OccurredAt.
type CustomerHistory struct {
	CustomerKey  string
	Orders       []OrderRecord
	FirstOrderAt time.Time
}

/*
COMPUTE → response shapes exported by the query endpoints.
*/

// RetentionHorizon is the number of relative months reported per cohort (M0..M11).
const RetentionHorizon = 12

// MonthBucket holds the statistics of one relative month of a cohort.
type MonthBucket struct {
	Month             string  `json:"month"`
	TotalSales        float64 `json:"totalSales"`
	UniqueCustomers   int     `json:"uniqueCustomers"`
	RetainedCustomers int     `json:"retainedCustomers"`
	RetentionFraction float64 `json:"retentionFraction"`
	AOV               float64 `json:"aov"`
}

// CohortReport is the retention curve of the customers acquired in one month.
type CohortReport struct {
	Cohort       string                        `json:"cohort"` // "YYYY-MM"
	Customers    int                           `json:"customers"`
	AvgRetention float64                       `json:"avgRetention"`
	Months       [RetentionHorizon]MonthBucket `json:"months"`
}

type CohortResponse struct {
	Cohorts []CohortReport `json:"cohorts"`
}

// ActivityPoint is the lifecycle classification at one timeline tick.
type ActivityPoint struct {
	Tick         string
	NewCustomers int
	Active       int
	Lost         int
}

// LifecyclePoint is an ActivityPoint merged with its comparison counterpart.
// The compare fields are only set in comparison mode.
type LifecyclePoint struct {
	Tick                string `json:"tick"`
	NewCustomers        int    `json:"newCustomers"`
	Active              int    `json:"active"`
	Lost                int    `json:"lost"`
	CompareNewCustomers *int   `json:"compareNewCustomers,omitempty"`
	CompareActive       *int   `json:"compareActive,omitempty"`
	CompareLost         *int   `json:"compareLost,omitempty"`
}

// TimeBucket aggregates the orders of one hour or one day.
type TimeBucket struct {
	Label       string
	OrderCount  int
	TotalAmount float64
	AOV         float64
}

// TrendPoint is one entry of a time series response. Current and Previous
// carry the requested metric; the raw bucket figures are always included.
type TrendPoint struct {
	Time               string   `json:"time"`
	Current            float64  `json:"current"`
	Previous           *float64 `json:"previous,omitempty"`
	OrderCount         int      `json:"orderCount"`
	TotalAmount        float64  `json:"totalAmount"`
	AOV                float64  `json:"aov"`
	CompareOrderCount  *int     `json:"compareOrderCount,omitempty"`
	CompareTotalAmount *float64 `json:"compareTotalAmount,omitempty"`
}

type TimeSeriesResponse struct {
	Total         float64      `json:"total"`
	Trend         []TrendPoint `json:"trend"`
	PercentChange *float64     `json:"percentChange,omitempty"`
}

/*
QUERY → filters understood by the time series endpoint.
*/

// Scope restricts the orders of a time series before bucketing.
type Scope string

const (
	ScopeAll   Scope = "all"
	ScopeAgent Scope = "agent"
	ScopeSelf  Scope = "self"
)

// Matches reports whether the order belongs to the scope.
func (s Scope) Matches(o OrderRecord) bool {
	switch s {
	case ScopeAgent:
		return o.AgentAssisted
	case ScopeSelf:
		return !o.AgentAssisted
	default:
		return true
	}
}

// Metric selects the figure a time series reports as current/previous/total.
type Metric string

const (
	MetricSales  Metric = "sales"
	MetricOrders Metric = "orders"
	MetricAOV    Metric = "aov"
)
