// Command seed loads demo data for local development: a fleet of vehicles,
// an admin account, a few drivers and a tourist.
package main

import (
	"context"
	"time"

	"github.com/islandrides/vehicle-rental/internal/auth"
	"github.com/islandrides/vehicle-rental/internal/config"
	"github.com/islandrides/vehicle-rental/internal/db"
	"github.com/islandrides/vehicle-rental/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var demoVehicles = []models.Vehicle{
	{Type: models.VehicleTypeCar, Brand: "Toyota", Model: "Corolla", Seats: 4, Features: []string{"AC", "Bluetooth"}, PricePerDay: 45, PricePerHour: 6, Available: true},
	{Type: models.VehicleTypeCar, Brand: "Honda", Model: "Civic", Seats: 4, Features: []string{"AC", "Cruise Control"}, PricePerDay: 50, PricePerHour: 7, Available: true},
	{Type: models.VehicleTypeVan, Brand: "Toyota", Model: "HiAce", Seats: 12, Features: []string{"AC", "Luggage Space"}, PricePerDay: 90, PricePerHour: 12, Available: true},
	{Type: models.VehicleTypeSUV, Brand: "Mitsubishi", Model: "Montero", Seats: 7, Features: []string{"AC", "4WD", "Roof Rack"}, PricePerDay: 110, PricePerHour: 15, Available: true},
	{Type: models.VehicleTypeBus, Brand: "Ashok Leyland", Model: "Viking", Seats: 45, Features: []string{"AC", "Reclining Seats"}, PricePerDay: 220, PricePerHour: 30, Available: true},
	{Type: models.VehicleTypeScooter, Brand: "Vespa", Model: "Primavera", Seats: 2, Features: []string{"Helmet Included"}, PricePerDay: 18, PricePerHour: 3, Available: true},
}

type demoUser struct {
	username string
	email    string
	fullName string
	role     models.Role
	driver   *models.DriverProfile
}

var demoUsers = []demoUser{
	{username: "admin", email: "admin@islandrides.example", fullName: "Fleet Admin", role: models.RoleAdmin},
	{username: "kasun", email: "kasun@islandrides.example", fullName: "Kasun Perera", role: models.RoleDriver,
		driver: &models.DriverProfile{LicenseNumber: "B1234567", LicenseExpiry: time.Now().AddDate(3, 0, 0), YearsOfExperience: 8, Languages: []string{"English", "Sinhala"}}},
	{username: "nuwan", email: "nuwan@islandrides.example", fullName: "Nuwan Silva", role: models.RoleDriver,
		driver: &models.DriverProfile{LicenseNumber: "B7654321", LicenseExpiry: time.Now().AddDate(2, 6, 0), YearsOfExperience: 5, Languages: []string{"English", "Tamil"}}},
	{username: "alice", email: "alice@example.com", fullName: "Alice Turner", role: models.RoleTourist},
}

func main() {
	cfg := config.Load()

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	database := client.Database(cfg.MongoDB)
	vehicles := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	users := &db.MongoUserCollection{Collection: database.Collection("users")}
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, v := range demoVehicles {
		v.ID = primitive.NewObjectID()
		v.BlockedPeriods = []models.BlockedPeriod{}
		if err := vehicles.InsertVehicle(ctx, v); err != nil {
			log.WithError(err).WithField("model", v.Model).Fatal("failed to seed vehicle")
		}
		log.WithFields(log.Fields{"type": v.Type, "model": v.Model}).Info("seeded vehicle")
	}

	for _, u := range demoUsers {
		if _, err := users.FindUserByUsername(ctx, u.username); err == nil {
			log.WithField("username", u.username).Info("user already exists, skipping")
			continue
		}
		hash, err := authService.HashPassword("password123")
		if err != nil {
			log.WithError(err).Fatal("failed to hash demo password")
		}
		user := models.User{
			ID:           primitive.NewObjectID(),
			Username:     u.username,
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
			FullName:     u.fullName,
			Driver:       u.driver,
			IsActive:     true,
		}
		if err := users.InsertUser(ctx, user); err != nil {
			log.WithError(err).WithField("username", u.username).Fatal("failed to seed user")
		}
		log.WithFields(log.Fields{"username": u.username, "role": u.role}).Info("seeded user")
	}

	log.Info("seed complete")
}
