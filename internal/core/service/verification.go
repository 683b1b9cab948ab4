package service

import (
	"context"
	"encoding/json"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/core/ports"
)

// verification is what a strategy sees of one completion attempt.
type verification struct {
	user    *entities.User
	task    *entities.Task
	payload entities.Payload
}

// verifyFunc checks a submission against the task and may persist side data
// in the same transaction. The returned blob is stored as the completion result.
type verifyFunc func(ctx context.Context, repos ports.Repositories, v verification) (json.RawMessage, error)

func defaultVerifiers() map[entities.VerificationType]verifyFunc {
	return map[entities.VerificationType]verifyFunc{
		entities.VerificationQR:           verifyCodes(entities.VerificationCodes.QRCandidates),
		entities.VerificationAppCode:      verifyCodes(entities.VerificationCodes.AllCandidates),
		entities.VerificationQROrManual:   verifyCodes(entities.VerificationCodes.AllCandidates),
		entities.VerificationStaffCode:    verifyStaffCode,
		entities.VerificationSelf:         verifySelf,
		entities.VerificationSurvey:       verifySurvey,
		entities.VerificationReferralForm: verifyReferral,
		entities.VerificationQuiz:         verifyQuiz,
		entities.VerificationReview:       verifyReview,
	}
}

func verifyCodes(candidates func(entities.VerificationCodes) []string) verifyFunc {
	return func(_ context.Context, _ ports.Repositories, v verification) (json.RawMessage, error) {
		codes, err := entities.DecodeVerificationCodes(v.task.VerificationData)
		if err != nil {
			return nil, exceptions.ErrNotConfigured
		}
		expected := candidates(codes)
		if len(expected) == 0 {
			return nil, exceptions.ErrNotConfigured
		}
		if !entities.MatchCode(v.payload.Code(), expected) {
			return nil, exceptions.ErrInvalidCode
		}
		return nil, nil
	}
}

func verifyStaffCode(ctx context.Context, repos ports.Repositories, v verification) (json.RawMessage, error) {
	code := v.payload.Code()
	if code == "" {
		return nil, exceptions.ErrInvalidCode
	}
	if err := repos.StaffCodes.Redeem(ctx, code, v.task.DayNumber); err != nil {
		return nil, err
	}
	return nil, nil
}

func verifySelf(context.Context, ports.Repositories, verification) (json.RawMessage, error) {
	return nil, nil
}

func verifySurvey(ctx context.Context, repos ports.Repositories, v verification) (json.RawMessage, error) {
	answers, err := v.payload.Object()
	if err != nil {
		return nil, err
	}
	if err := repos.Users.SaveSurvey(ctx, v.user.ID, answers); err != nil {
		return nil, err
	}
	return nil, nil
}

func verifyReferral(ctx context.Context, repos ports.Repositories, v verification) (json.RawMessage, error) {
	var form entities.ReferralForm
	if err := v.payload.Decode(&form); err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	referral := &entities.Referral{
		UserID:      v.user.ID,
		FriendName:  form.FriendName,
		FriendPhone: form.FriendPhone,
	}
	if err := repos.Referrals.Create(ctx, referral); err != nil {
		return nil, err
	}
	return nil, nil
}

// verifyQuiz trusts the client score and keeps it as the completion result.
func verifyQuiz(_ context.Context, _ ports.Repositories, v verification) (json.RawMessage, error) {
	var quiz entities.QuizResult
	if err := v.payload.Decode(&quiz); err != nil {
		return nil, err
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	result, err := json.Marshal(quiz)
	if err != nil {
		return nil, exceptions.ErrInvalidPayload
	}
	return result, nil
}

// Review tasks are completed by moderation only.
func verifyReview(context.Context, ports.Repositories, verification) (json.RawMessage, error) {
	return nil, exceptions.ErrNotSupported
}
