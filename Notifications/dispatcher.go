package Notifications

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"Souq/Models"
)

// Global Firebase client
var firebaseClient *messaging.Client
var ctx = context.Background()

// Initialize Firebase (call this once at startup)
func InitFirebase() error {
	credFile := Models.EnvString("FIREBASE_CREDENTIALS_FILE", "./firebase-service-account.json")
	opt := option.WithCredentialsFile(credFile)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing Firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting Messaging client: %v", err)
	}

	firebaseClient = client
	log.Println("Firebase initialized successfully")
	return nil
}

// Push delivers a notification to the vendor's registered device. Delivery is
// fire-and-forget: failures are logged and never affect the state transition
// that triggered the push.
func Push(db *gorm.DB, notification *Models.VendorNotification) {
	if firebaseClient == nil {
		log.Println("Firebase client not initialized, skipping push")
		return
	}

	var token Models.VendorFCMToken
	if err := db.Where("vendor_id = ?", notification.VendorID).First(&token).Error; err != nil {
		log.Printf("No FCM token for vendor %d, skipping push", notification.VendorID)
		return
	}

	message := &messaging.Message{
		Token: token.Value,
		Data: map[string]string{
			"vendor_id":   fmt.Sprintf("%d", notification.VendorID),
			"purchase_id": fmt.Sprintf("%d", notification.PurchaseID),
			"type":        notification.Type,
			"priority":    notification.Priority,
		},
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Message,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
			Priority: androidPriority(notification.Priority),
		},
	}

	response, err := firebaseClient.Send(ctx, message)
	if err != nil {
		log.Printf("Error sending Firebase message for vendor %d: %v", notification.VendorID, err)
		return
	}
	log.Printf("Sent Firebase notification: %s", response)
}

func androidPriority(priority string) string {
	if priority == Models.PriorityHigh {
		return "high"
	}
	return "normal"
}
