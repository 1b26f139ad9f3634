package inbound

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/facilitator/usecase"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/router"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
)

// HTTPEndpoint exposes HTTP handlers for phone authentication and profile workflows.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP issues a one-time code and texts it to the phone number.
// @Summary Send OTP
// @Tags Facilitator, Authentication
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Phone number in E.164"
// @Success 200 {object} SendOTPResponse
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /send-otp [post]
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestOTP(r.Context(), usecase.RequestOTPInput{PhoneNumber: req.PhoneNumber})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{
		Success:     true,
		Message:     "OTP sent successfully",
		PhoneNumber: resp.PhoneNumber,
	}, nil
}

// VerifyOTP consumes a code and logs in, or starts onboarding for an unknown number.
// @Summary Verify OTP
// @Tags Facilitator, Authentication
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Phone number and code"
// @Success 200 {object} VerifyOTPResponse
// @Failure 400 {object} router.errorResponse "Validation error or invalid OTP"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		PhoneNumber: req.PhoneNumber,
		OTP:         req.OTP,
	})
	if err != nil {
		return nil, err
	}

	if resp.IsNewUser {
		return VerifyOTPResponse{
			Success:    true,
			IsNewUser:  true,
			RedirectTo: resp.RedirectTo,
			Message:    "OTP verified. Please complete your profile.",
		}, nil
	}

	summary := newFacilitatorSummary(*resp.Facilitator)
	return VerifyOTPResponse{
		Success:     true,
		IsNewUser:   false,
		RedirectTo:  resp.RedirectTo,
		Message:     "Login successful",
		Facilitator: &summary,
	}, nil
}

// CompleteOnboarding creates the facilitator of a verified phone number.
// @Summary Complete onboarding
// @Tags Facilitator, Authentication
// @Accept json
// @Produce json
// @Param request body CompleteOnboardingRequest true "Profile"
// @Success 200 {object} CompleteOnboardingResponse
// @Failure 400 {object} router.errorResponse "Validation error or already registered"
// @Failure 401 {object} router.errorResponse "Invalid session"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /complete-onboarding [post]
func (h *HTTPEndpoint) CompleteOnboarding(r *router.Request) (any, error) {
	var req CompleteOnboardingRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.CompleteOnboarding(r.Context(), usecase.CompleteOnboardingInput{
		Name:     req.Name,
		Email:    req.Email,
		Sections: req.sections(),
	})
	if err != nil {
		return nil, err
	}

	return CompleteOnboardingResponse{
		Success:     true,
		Message:     "Onboarding completed successfully",
		Facilitator: newFacilitatorSummary(resp.Facilitator),
		RedirectTo:  resp.RedirectTo,
	}, nil
}

// Logout clears the session; it succeeds without one too.
// @Summary Logout
// @Tags Facilitator, Authentication
// @Produce json
// @Success 200 {object} LogoutResponse
// @Router /logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{Success: true, Message: "Logged out successfully"}, nil
}

// SessionStatus reports whether the caller is logged in or onboarding.
// @Summary Session status
// @Tags Facilitator, Authentication
// @Produce json
// @Success 200 {object} SessionStatusResponse
// @Router /session-status [get]
func (h *HTTPEndpoint) SessionStatus(r *router.Request) (any, error) {
	resp := h.uc.SessionStatus(r.Context())

	switch resp.State {
	case session.StateAuthenticated:
		return SessionStatusResponse{
			Authenticated: true,
			FacilitatorID: resp.FacilitatorID,
			PhoneNumber:   resp.PhoneNumber,
			Status:        resp.State.String(),
		}, nil

	case session.StateOnboardingPending:
		return SessionStatusResponse{
			TempPhoneNumber: resp.TempPhoneNumber,
			Status:          resp.State.String(),
		}, nil

	default:
		return SessionStatusResponse{Status: "not_authenticated"}, nil
	}
}

// Profile returns the logged in facilitator.
// @Summary Get profile
// @Tags Facilitator, Profile
// @Produce json
// @Success 200 {object} router.successResponse{data=ProfileResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /facilitator/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	f, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return newProfileResponse(f), nil
}

// ProfileUpdateSection replaces one profile section with the JSON body.
// @Summary Update profile section
// @Tags Facilitator, Profile
// @Accept json
// @Produce json
// @Param section path string true "basic_info, professional_details, bio_about, experience, certifications or visual_profile"
// @Success 200 {object} router.successResponse{data=ProfileResponse}
// @Failure 400 {object} router.errorResponse "Unknown section or invalid document"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /facilitator/profile/{section} [put]
func (h *HTTPEndpoint) ProfileUpdateSection(r *router.Request) (any, error) {
	var body json.RawMessage
	if err := r.DecodeBody(&body); err != nil {
		return nil, err
	}

	f, err := h.uc.ProfileUpdateSection(r.Context(), usecase.ProfileUpdateSectionInput{
		Section: r.GetParam("section"),
		Value:   body,
	})
	if err != nil {
		return nil, err
	}

	sec, _ := entity.ParseSection(r.GetParam("section"))
	return ProfileUpdateSectionResponse{ProfileResponse: newProfileResponse(f), section: sec}, nil
}

// ProfileUpdateAvatar stores the uploaded image and saves its URL.
// @Summary Update avatar
// @Tags Facilitator, Profile
// @Accept multipart/form-data
// @Param file formData file true "JPEG, PNG or WebP image"
// @Success 200 {object} router.successResponse{data=ProfileUpdateAvatarResponse}
// @Failure 400 {object} router.errorResponse "Invalid file"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /facilitator/avatar [put]
func (h *HTTPEndpoint) ProfileUpdateAvatar(r *router.Request) (any, error) {
	ctx := r.Context()

	file, err := r.StreamSingleFile("file")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, goerror.NewInvalidFormat()
	}

	resp, err := h.uc.ProfileUpdateAvatar(ctx, usecase.ProfileUpdateAvatarInput{
		File:        io.MultiReader(bytes.NewReader(head[:n]), file),
		ContentType: http.DetectContentType(head[:n]),
	})
	if err != nil {
		return nil, err
	}

	return ProfileUpdateAvatarResponse{AvatarURL: resp.AvatarURL}, nil
}
