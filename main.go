package main

import (
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"

	"Souq/CronJobs"
	"Souq/FiberConfig"
	"Souq/Models"
	"Souq/Notifications"
)

func main() {
	// setupLogging()
	Models.Connect()

	go func() {
		if err := Notifications.InitFirebase(); err != nil {
			log.Println("Failed to initialize Firebase:", err)
		}
	}()

	tracker := CronJobs.NewRepaymentTracker(Models.DB, true)
	if err := tracker.Start(); err != nil {
		log.Printf("Failed to start repayment tracker: %v", err)
	} else {
		log.Println("Repayment tracker started")
	}
	defer tracker.Stop()

	FiberConfig.FiberConfig(tracker)
}

func setupLogging() {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	// Set up main application log file
	logFile, err := os.OpenFile("logs/application.log",
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)

	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	// Redirect log output to the file
	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime)
}
