package domain

import "time"

// OrderStatus is the lifecycle of an order. Records only ever move
// open → filled or open → cancelled; rejected orders never open.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
)

// Order is a sized, approved trade handed to a platform adapter.
type Order struct {
	Symbol     string
	Side       Action
	Quantity   float64 // base units
	Price      float64 // limit price in quote currency
	StopLoss   float64
	TakeProfit float64
}

// Fill is the platform's answer to a placed order.
type Fill struct {
	OrderID        string
	Status         OrderStatus
	FilledPrice    float64
	FilledQuantity float64
}

// PlatformStatus describes a platform adapter's current condition.
type PlatformStatus struct {
	Connected  bool
	SafetyLock bool
	Testnet    bool
}

// ExecutionRecord is one entry in the append-only execution history. Every
// attempt — filled, cancelled or rejected — gets a record; nothing is ever
// mutated after the fact except the open→filled/cancelled status transition
// applied by the executor itself.
type ExecutionRecord struct {
	OrderID   string
	Mode      Mode
	Symbol    string
	Side      Action
	Quantity  float64
	Price     float64
	Status    OrderStatus
	Error     string // empty on success
	Timestamp time.Time
}
