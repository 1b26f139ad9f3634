package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shandysiswandi/ahoum/internal/app"
)

// @title           Ahoum Facilitator API
// @version         1.0
// @description     Ahoum lets facilitators sign in with a phone OTP, onboard and manage their profile.
// @contact.name    Contact Support
// @contact.email   support@ahoum.com
// @server          http://localhost:8080
// @securityDefinitions.apikey  SessionCookie
// @in cookie
// @name ahoum_session
func main() {
	if os.Getenv("LOCAL") == "true" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load .env", "error", err)
		}
	}

	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
