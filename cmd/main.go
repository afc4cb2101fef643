package main

import (
	"net/http"

	"github.com/islandrides/vehicle-rental/internal/auth"
	"github.com/islandrides/vehicle-rental/internal/booking"
	"github.com/islandrides/vehicle-rental/internal/config"
	"github.com/islandrides/vehicle-rental/internal/db"
	"github.com/islandrides/vehicle-rental/internal/db/cached"
	"github.com/islandrides/vehicle-rental/internal/events"
	"github.com/islandrides/vehicle-rental/internal/handlers"
	"github.com/islandrides/vehicle-rental/internal/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	cfg := config.Load()

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	log.Info("connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	var vehicles db.VehicleCollection = &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	bookings := &db.MongoBookingCollection{Collection: database.Collection("bookings")}
	users := &db.MongoUserCollection{Collection: database.Collection("users")}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		vehicles = cached.NewVehicleCollection(vehicles, redisClient)
		log.WithField("addr", cfg.RedisAddr).Info("vehicle list cache enabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.MQTTURL != "" {
		mqttPublisher, err := events.NewMQTTPublisher(cfg.MQTTURL)
		if err != nil {
			log.WithError(err).Warn("booking events disabled, MQTT broker unreachable")
		} else {
			defer mqttPublisher.Close()
			publisher = mqttPublisher
			log.WithField("broker", cfg.MQTTURL).Info("booking events enabled")
		}
	}

	engine := booking.NewEngine(vehicles, bookings, users, publisher)
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)

	router := handlers.NewRouter(
		handlers.NewAuthHandler(authService, users),
		handlers.NewVehicleHandler(engine, vehicles),
		handlers.NewBookingHandler(engine),
		middleware.NewAuthMiddleware(authService),
		middleware.NewRateLimitMiddleware(),
	)

	log.WithField("port", cfg.Port).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.WithError(err).Fatal("HTTP server stopped")
	}
}
