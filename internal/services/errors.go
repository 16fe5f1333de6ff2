package services

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrBadCreds          = errors.New("invalid email or password")
	ErrInactive          = errors.New("account is deactivated")
	ErrEmailTaken        = errors.New("email already registered")
	ErrISBNTaken         = errors.New("isbn already exists")
	ErrCategoryExists    = errors.New("category already exists")
	ErrAlreadyReviewed   = errors.New("book already reviewed by this user")
	ErrOutOfStock        = errors.New("out of stock")
	ErrNotBorrowable     = errors.New("book is not available for borrowing")
	ErrNotBorrow         = errors.New("only borrow transactions can be returned")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotEditable       = errors.New("transaction can no longer be edited")
	ErrBookInUse         = errors.New("book is referenced by transactions")
	ErrUserHasOpen       = errors.New("user has open transactions")
)
