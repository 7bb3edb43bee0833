package main

import (
	"log"

	"shopapp/internal/config"
	"shopapp/internal/domain/model"
	"shopapp/internal/handler"
	"shopapp/internal/infra/db"
	infraRepo "shopapp/internal/infra/repository"
	"shopapp/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}

	if err := gormDB.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.ProductImage{},
		&model.CartLine{},
		&model.Order{},
		&model.OrderItem{},
		&model.Review{},
	); err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	catalogUC := usecase.NewCatalogUsecase(categoryRepo, productRepo, reviewRepo, orderItemRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo, orderItemRepo)

	//Handler生成とルーティング
	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	handler.NewCatalogHandler(catalogUC).RegisterRoutes(e, cfg)
	handler.NewCartHandler(cartUC).RegisterRoutes(e, cfg)
	handler.NewOrderHandler(orderUC).RegisterRoutes(e, cfg)
	handler.NewReviewHandler(reviewUC).RegisterRoutes(e, cfg)

	//Server起動
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
