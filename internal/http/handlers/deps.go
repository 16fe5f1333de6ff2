package handlers

import (
	"github.com/jmoiron/sqlx"

	"bookstore/internal/config"
	"bookstore/internal/repos"
	"bookstore/internal/services"
	"bookstore/internal/token"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler        *AuthHandler
	UserHandler        *UserHandler
	BookHandler        *BookHandler
	CategoryHandler    *CategoryHandler
	ReviewHandler      *ReviewHandler
	InventoryHandler   *InventoryHandler
	TransactionHandler *TransactionHandler
	AdminHandler       *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	userRepo := repos.NewUserRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	bookRepo := repos.NewBookRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	txRepo := repos.NewTransactionRepo(db)
	reviewRepo := repos.NewReviewRepo(db)

	authSvc := services.NewAuthService(userRepo, token.NewIssuer(cfg.JWTSecret, cfg.JWTTTL))
	userSvc := services.NewUserService(userRepo, txRepo)
	catalogSvc := services.NewCatalogService(catRepo, bookRepo)
	invSvc := services.NewInventoryService(invRepo, bookRepo)
	reviewSvc := services.NewReviewService(reviewRepo, bookRepo)
	txSvc := services.NewTransactionService(txRepo, bookRepo, invRepo)

	return &Deps{
		Auth:               authSvc,
		AuthHandler:        &AuthHandler{Auth: authSvc},
		UserHandler:        &UserHandler{Users: userSvc, Txs: txSvc, Reviews: reviewSvc},
		BookHandler:        &BookHandler{Catalog: catalogSvc},
		CategoryHandler:    &CategoryHandler{Catalog: catalogSvc},
		ReviewHandler:      &ReviewHandler{Reviews: reviewSvc},
		InventoryHandler:   &InventoryHandler{Inv: invSvc},
		TransactionHandler: &TransactionHandler{Txs: txSvc},
		AdminHandler:       &AdminHandler{Txs: txSvc, Users: userSvc},
	}
}
