package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"restaurant_orders/internal/config"
	"restaurant_orders/internal/database"
	"restaurant_orders/internal/models"
	"restaurant_orders/internal/repository"
	"restaurant_orders/internal/services"
)

func main() {
	fmt.Println("Seeding database...")

	cfg := config.Load()
	ctx := context.Background()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	userRepo := repository.NewUserRepository(db)
	plateRepo := repository.NewPlateRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	userService := services.NewUserService(userRepo)

	admin := &models.User{
		Name:  "Administrador",
		Email: "admin@sushihana.com.br",
		Role:  string(models.RoleAdmin),
	}
	if err := userService.CreateUser(ctx, admin, "admin123"); err != nil {
		log.Println("admin user:", err)
	}

	plates := []models.Plate{
		{Name: "Combinado Sushihana", Description: "20 peças variadas", Category: "combinados", Value: 89.90, IsAvailable: true},
		{Name: "Temaki de Salmão", Description: "Salmão fresco com cream cheese", Category: "temakis", Value: 32.00, IsAvailable: true},
		{Name: "Hot Roll", Description: "8 peças empanadas", Category: "hots", Value: 24.50, IsAvailable: true},
		{Name: "Yakisoba de Frango", Description: "Macarrão oriental com legumes", Category: "pratos quentes", Value: 38.00, IsAvailable: true},
	}
	for i := range plates {
		if err := plateRepo.Create(ctx, &plates[i]); err != nil {
			log.Println("plate:", err)
		}
	}

	usageLimit := 100
	welcome := &models.Coupon{
		Code:          "BEMVINDO10",
		Description:   "10% de desconto na primeira compra",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		MinOrderValue: 30,
		UsageLimit:    &usageLimit,
		UsagePerUser:  1,
		ValidFrom:     time.Now(),
		IsActive:      true,
	}
	if err := couponRepo.Create(ctx, welcome); err != nil {
		log.Println("coupon:", err)
	}

	fmt.Println("Done.")
}
