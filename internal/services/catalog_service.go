package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bookstore/internal/domain"
	"bookstore/internal/repos"
	"bookstore/internal/validate"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Books *repos.BookRepo
}

func NewCatalogService(cats *repos.CategoryRepo, books *repos.BookRepo) *CatalogService {
	return &CatalogService{Cats: cats, Books: books}
}

type BookInput struct {
	ISBN            string   `json:"isbn" validate:"required,isbn"`
	Title           string   `json:"title" validate:"required,min=1,max=255"`
	Author          string   `json:"author" validate:"required,min=1,max=255"`
	Publisher       string   `json:"publisher" validate:"omitempty,max=255"`
	PublicationYear int      `json:"publication_year" validate:"omitempty,min=1000,max=2100"`
	Description     string   `json:"description" validate:"omitempty,max=5000"`
	Price           float64  `json:"price" validate:"required,gt=0"`
	StockQuantity   int      `json:"stock_quantity" validate:"min=0"`
	BorrowAvailable *bool    `json:"borrow_available"`
	CategoryIDs     []string `json:"category_ids" validate:"omitempty,max=10,dive,ident"`
}

// BookPatch carries a partial edit; nil fields keep their stored value.
// Stock is changed through the inventory endpoints only.
type BookPatch struct {
	ISBN            *string  `json:"isbn"`
	Title           *string  `json:"title"`
	Author          *string  `json:"author"`
	Publisher       *string  `json:"publisher"`
	PublicationYear *int     `json:"publication_year"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price"`
	StockQuantity   *int     `json:"stock_quantity"`
	BorrowAvailable *bool    `json:"borrow_available"`
	CategoryIDs     []string `json:"category_ids"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	ParentID    string `json:"parent_id" validate:"omitempty,ident"`
}

// BookDetail is a book with its categories.
type BookDetail struct {
	domain.Book
	Categories []domain.Category `json:"categories"`
}

func (s *CatalogService) ListCategories(ctx context.Context, parentID string) ([]domain.Category, error) {
	return s.Cats.List(ctx, parentID)
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	c, err := s.Cats.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(&in); err != nil {
		return domain.Category{}, err
	}
	if in.ParentID != "" {
		if _, err := s.GetCategory(ctx, in.ParentID); err != nil {
			return domain.Category{}, err
		}
	}
	c := domain.Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		ParentID:    in.ParentID,
	}
	if err := s.Cats.Create(ctx, c); err != nil {
		if repos.IsUniqueViolation(err) {
			return domain.Category{}, ErrCategoryExists
		}
		return domain.Category{}, err
	}
	return s.Cats.Get(ctx, c.ID)
}

func (s *CatalogService) ListBooksByCategory(ctx context.Context, catID string, skip, limit int) ([]domain.Book, error) {
	if _, err := s.GetCategory(ctx, catID); err != nil {
		return nil, err
	}
	return s.Books.Search(ctx, "", catID, limit, skip)
}

func (s *CatalogService) Search(ctx context.Context, q, catID string, skip, limit int) ([]domain.Book, error) {
	return s.Books.Search(ctx, strings.TrimSpace(q), catID, limit, skip)
}

func (s *CatalogService) GetBook(ctx context.Context, id string) (BookDetail, error) {
	b, err := s.Books.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BookDetail{}, ErrNotFound
		}
		return BookDetail{}, err
	}
	cats, err := s.Books.Categories(ctx, id)
	if err != nil {
		return BookDetail{}, err
	}
	return BookDetail{Book: b, Categories: cats}, nil
}

func (s *CatalogService) CreateBook(ctx context.Context, in BookInput) (BookDetail, error) {
	b, err := s.bookFrom(in)
	if err != nil {
		return BookDetail{}, err
	}
	b.ID = uuid.NewString()
	if err := s.Books.Create(ctx, b, in.CategoryIDs); err != nil {
		return BookDetail{}, s.mapWriteErr(err)
	}
	return s.GetBook(ctx, b.ID)
}

// UpdateBook applies the fields present in p. Omitting category_ids keeps the links.
func (s *CatalogService) UpdateBook(ctx context.Context, id string, p BookPatch) (BookDetail, error) {
	if p.StockQuantity != nil {
		return BookDetail{}, validate.Errors{"stock_quantity": "is set through the inventory endpoint"}
	}
	cur, err := s.Books.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BookDetail{}, ErrNotFound
		}
		return BookDetail{}, err
	}
	in := BookInput{
		ISBN:            cur.ISBN,
		Title:           cur.Title,
		Author:          cur.Author,
		Publisher:       cur.Publisher,
		PublicationYear: cur.PublicationYear,
		Description:     cur.Description,
		Price:           cur.Price,
		BorrowAvailable: &cur.BorrowAvailable,
		CategoryIDs:     p.CategoryIDs,
	}
	if p.ISBN != nil {
		in.ISBN = *p.ISBN
	}
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Author != nil {
		in.Author = *p.Author
	}
	if p.Publisher != nil {
		in.Publisher = *p.Publisher
	}
	if p.PublicationYear != nil {
		in.PublicationYear = *p.PublicationYear
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Price != nil {
		in.Price = *p.Price
	}
	if p.BorrowAvailable != nil {
		in.BorrowAvailable = p.BorrowAvailable
	}

	b, err := s.bookFrom(in)
	if err != nil {
		return BookDetail{}, err
	}
	b.ID = id
	ok, err := s.Books.Update(ctx, b, in.CategoryIDs)
	if err != nil {
		return BookDetail{}, s.mapWriteErr(err)
	}
	if !ok {
		return BookDetail{}, ErrNotFound
	}
	return s.GetBook(ctx, id)
}

func (s *CatalogService) DeleteBook(ctx context.Context, id string) error {
	ok, err := s.Books.Delete(ctx, id)
	if err != nil {
		if repos.IsForeignKeyViolation(err) {
			return ErrBookInUse
		}
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *CatalogService) bookFrom(in BookInput) (domain.Book, error) {
	in.ISBN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(in.ISBN), "-", ""))
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if err := validate.Struct(&in); err != nil {
		return domain.Book{}, err
	}
	borrow := true
	if in.BorrowAvailable != nil {
		borrow = *in.BorrowAvailable
	}
	return domain.Book{
		ISBN:            in.ISBN,
		Title:           in.Title,
		Author:          in.Author,
		Publisher:       strings.TrimSpace(in.Publisher),
		PublicationYear: in.PublicationYear,
		Description:     strings.TrimSpace(in.Description),
		Price:           in.Price,
		StockQuantity:   in.StockQuantity,
		BorrowAvailable: borrow,
	}, nil
}

func (s *CatalogService) mapWriteErr(err error) error {
	switch {
	case repos.IsUniqueViolation(err):
		return ErrISBNTaken
	case repos.IsForeignKeyViolation(err):
		return validate.Errors{"category_ids": "unknown category"}
	}
	return fmt.Errorf("save book: %w", err)
}
