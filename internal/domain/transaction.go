package domain

type TxType string

const (
	TxBorrow TxType = "borrow"
	TxBuy    TxType = "buy"
)

func (t TxType) Valid() bool { return t == TxBorrow || t == TxBuy }

type TxStatus string

const (
	StatusPending    TxStatus = "pending"
	StatusConfirmed  TxStatus = "confirmed"
	StatusProcessing TxStatus = "processing"
	StatusShipped    TxStatus = "shipped"
	StatusDelivered  TxStatus = "delivered"
	StatusReturned   TxStatus = "returned"
	StatusCancelled  TxStatus = "cancelled"
)

var AllStatuses = []TxStatus{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
	StatusDelivered, StatusReturned, StatusCancelled,
}

func (s TxStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "standard_shipping"
	DeliveryExpress  DeliveryMethod = "express_shipping"
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryLocal    DeliveryMethod = "local_delivery"
)

// forward lists the plain forward edges. Return and cancel edges are
// handled by CanTransition because they depend on the transaction.
var forward = map[TxStatus]TxStatus{
	StatusPending:    StatusConfirmed,
	StatusConfirmed:  StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// CanTransition reports whether a transaction of type t delivered by m may
// move from one status to another.
func CanTransition(t TxType, m DeliveryMethod, from, to TxStatus) bool {
	switch to {
	case StatusCancelled:
		return from == StatusPending || from == StatusConfirmed || from == StatusProcessing
	case StatusReturned:
		return t == TxBorrow && (from == StatusShipped || from == StatusDelivered)
	case StatusDelivered:
		if from == StatusProcessing && m == DeliveryPickup {
			return true
		}
	}
	next, ok := forward[from]
	return ok && next == to
}

// Terminal reports whether no further transition is possible.
func Terminal(t TxType, s TxStatus) bool {
	switch s {
	case StatusReturned, StatusCancelled:
		return true
	case StatusDelivered:
		return t == TxBuy
	}
	return false
}

// Holding reports whether the transaction still holds stock that a cancel
// or return would release.
func Holding(s TxStatus) bool {
	return s != StatusReturned && s != StatusCancelled
}

type Transaction struct {
	ID                  string         `db:"id" json:"id"`
	UserID              string         `db:"user_id" json:"user_id"`
	Type                TxType         `db:"type" json:"type"`
	Status              TxStatus       `db:"status" json:"status"`
	DeliveryMethod      DeliveryMethod `db:"delivery_method" json:"delivery_method"`
	DeliveryAddress     string         `db:"delivery_address" json:"delivery_address"`
	Notes               string         `db:"notes" json:"notes,omitempty"`
	TotalAmount         float64        `db:"total_amount" json:"total_amount"`
	EstimatedDeliveryAt string         `db:"estimated_delivery_at" json:"estimated_delivery_at,omitempty"`
	DeliveredAt         string         `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt           string         `db:"created_at" json:"created_at"`
	UpdatedAt           string         `db:"updated_at" json:"updated_at"`

	Items    []TransactionItem  `db:"-" json:"items,omitempty"`
	Tracking []DeliveryTracking `db:"-" json:"tracking,omitempty"`
}

type TransactionItem struct {
	ID            string  `db:"id" json:"id"`
	TransactionID string  `db:"transaction_id" json:"transaction_id"`
	BookID        string  `db:"book_id" json:"book_id"`
	Title         string  `db:"title" json:"title,omitempty"`
	Quantity      int     `db:"quantity" json:"quantity"`
	UnitPrice     float64 `db:"unit_price" json:"unit_price"`
	BorrowDueDate string  `db:"borrow_due_date" json:"borrow_due_date,omitempty"`
	ReturnedAt    string  `db:"returned_at" json:"returned_at,omitempty"`
}

type DeliveryTracking struct {
	ID            string   `db:"id" json:"id"`
	TransactionID string   `db:"transaction_id" json:"transaction_id"`
	Status        TxStatus `db:"status" json:"status"`
	Location      string   `db:"location" json:"location,omitempty"`
	Note          string   `db:"note" json:"note,omitempty"`
	CreatedAt     string   `db:"created_at" json:"created_at"`
}

type OverdueItem struct {
	TransactionID string `db:"transaction_id" json:"transaction_id"`
	UserID        string `db:"user_id" json:"user_id"`
	Email         string `db:"email" json:"email"`
	BookID        string `db:"book_id" json:"book_id"`
	Title         string `db:"title" json:"title"`
	Quantity      int    `db:"quantity" json:"quantity"`
	BorrowDueDate string `db:"borrow_due_date" json:"borrow_due_date"`
}

type PopularBook struct {
	BookID        string `db:"book_id" json:"book_id"`
	Title         string `db:"title" json:"title"`
	TotalQuantity int    `db:"total_quantity" json:"total_quantity"`
}

type TransactionStats struct {
	TotalTransactions  int              `json:"total_transactions"`
	ByStatus           map[TxStatus]int `json:"by_status"`
	ByType             map[TxType]int   `json:"by_type"`
	ActiveBorrows      int              `json:"active_borrows"`
	OverdueBorrows     int              `json:"overdue_borrows"`
	CompletedPurchases int              `json:"completed_purchases"`
	TotalRevenue       float64          `json:"total_revenue"`
	AverageOrderValue  float64          `json:"average_order_value"`
	MostPopularBooks   []PopularBook    `json:"most_popular_books"`
	RecentTransactions []Transaction    `json:"recent_transactions"`
}
