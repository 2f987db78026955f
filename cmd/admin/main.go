package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ser/app/internal/config"
	"ser/app/internal/storage"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "ban":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin ban <user_id> [duration_in_hours]")
			os.Exit(1)
		}
		userID := os.Args[2]
		var duration int
		if len(os.Args) > 3 {
			var err error
			duration, err = strconv.Atoi(os.Args[3])
			if err != nil {
				fmt.Println("Invalid duration. Please provide an integer.")
				os.Exit(1)
			}
		}
		if err := banUser(storageSvc, userID, duration); err != nil {
			log.Fatalf("Error banning user: %v", err)
		}
		fmt.Printf("User %s has been banned.\n", userID)
	case "unban":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin unban <user_id>")
			os.Exit(1)
		}
		userID := os.Args[2]
		if err := unbanUser(storageSvc, userID); err != nil {
			log.Fatalf("Error unbanning user: %v", err)
		}
		fmt.Printf("User %s has been unbanned.\n", userID)
	case "confirm-report":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin confirm-report <report_id>")
			os.Exit(1)
		}
		reportID := os.Args[2]
		if err := confirmReport(storageSvc, reportID); err != nil {
			log.Fatalf("Error confirming report: %v", err)
		}
		fmt.Printf("Report %s has been confirmed.\n", reportID)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func banUser(s storage.Storage, userID string, durationHours int) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	user.IsBlocked = true
	if durationHours > 0 {
		user.BlockEndTime = time.Now().Add(time.Duration(durationHours) * time.Hour).Unix()
	}
	user.LastBanDate = time.Now().Unix()
	return s.UpdateUser(user)
}

func unbanUser(s storage.Storage, userID string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	user.IsBlocked = false
	user.BlockEndTime = 0
	return s.UpdateUser(user)
}

func confirmReport(s storage.Storage, reportID string) error {
	report, err := s.GetReportByID(reportID)
	if err != nil {
		return err
	}
	if err := s.UpdateUserReputation(report.ReporterID, config.ConfirmedReportBonus); err != nil {
		return err
	}
	return s.UpdateReportStatus(reportID, "confirmed")
}
