package inbound

import (
	"context"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/facilitator/usecase"
	"github.com/shandysiswandi/ahoum/internal/pkg/router"
)

type uc interface {
	RequestOTP(ctx context.Context, in usecase.RequestOTPInput) (*usecase.RequestOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	CompleteOnboarding(ctx context.Context, in usecase.CompleteOnboardingInput) (*usecase.CompleteOnboardingOutput, error)

	Logout(ctx context.Context) error
	SessionStatus(ctx context.Context) *usecase.SessionStatusOutput

	Profile(ctx context.Context) (*entity.Facilitator, error)
	ProfileUpdateSection(ctx context.Context, in usecase.ProfileUpdateSectionInput) (*entity.Facilitator, error)
	ProfileUpdateAvatar(ctx context.Context, in usecase.ProfileUpdateAvatarInput) (*usecase.ProfileUpdateAvatarOutput, error)
}

// RegisterHTTPEndpoint mounts the phone auth and profile routes. A nil limiter
// leaves the OTP routes unthrottled.
func RegisterHTTPEndpoint(r *router.Router, uc uc, limiter *router.RateLimiter) {
	end := &HTTPEndpoint{uc: uc}
	throttle := limiter.Middleware()

	// Phone OTP authentication
	r.POST("/send-otp", end.SendOTP, throttle)
	r.POST("/verify-otp", end.VerifyOTP, throttle)
	r.POST("/complete-onboarding", end.CompleteOnboarding, router.RequireOnboarding)
	r.POST("/logout", end.Logout)
	r.GET("/session-status", end.SessionStatus)

	// Profile (need authenticated)
	r.GET("/facilitator/profile", end.Profile, router.RequireAuthenticated)
	r.PUT("/facilitator/profile/:section", end.ProfileUpdateSection, router.RequireAuthenticated)
	r.PUT("/facilitator/avatar", end.ProfileUpdateAvatar, router.RequireAuthenticated)
}
