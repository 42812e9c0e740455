package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"charter_backoffice/internal/config"
	"charter_backoffice/internal/services"
)

// Smoke test for the SMS gateway configuration.
func main() {
	phone := flag.String("phone", "", "Phone number in international format (e.g. +34612345678)")
	msg := flag.String("msg", "Test message from charter_backoffice", "Message body")
	flag.Parse()

	if *phone == "" {
		log.Fatal("Please provide a phone number using -phone flag")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}

	service := services.NewSMSService(config.Load())
	if !service.Configured() {
		log.Fatal("SMS gateway not configured, set SMS_BASE_URL and SMS_API_KEY")
	}

	log.Printf("Sending message to %s: %s", *phone, *msg)

	if err := service.Send(*phone, *msg); err != nil {
		log.Fatalf("Failed to send message: %v", err)
	}

	log.Println("Message sent successfully!")
}
