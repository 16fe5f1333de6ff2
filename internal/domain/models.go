package domain

type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	ParentID    string `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

type Book struct {
	ID              string  `db:"id" json:"id"`
	ISBN            string  `db:"isbn" json:"isbn"`
	Title           string  `db:"title" json:"title"`
	Author          string  `db:"author" json:"author"`
	Publisher       string  `db:"publisher" json:"publisher,omitempty"`
	PublicationYear int     `db:"publication_year" json:"publication_year,omitempty"`
	Description     string  `db:"description" json:"description,omitempty"`
	Price           float64 `db:"price" json:"price"`
	StockQuantity   int     `db:"stock_quantity" json:"stock_quantity"`
	BorrowAvailable bool    `db:"borrow_available" json:"borrow_available"`
	CreatedAt       string  `db:"created_at" json:"created_at"`
	UpdatedAt       string  `db:"updated_at" json:"updated_at,omitempty"`
}

type Availability struct {
	Status          string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty             int    `json:"qty"`
	BorrowAvailable bool   `json:"borrow_available"`
}

type Review struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	BookID    string `db:"book_id" json:"book_id"`
	Rating    int    `db:"rating" json:"rating"`
	Comment   string `db:"comment" json:"comment,omitempty"`
	Helpful   int    `db:"helpful_votes" json:"helpful_votes"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}
