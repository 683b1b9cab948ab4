package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type completionFixture struct {
	store *memStore
	svc   *CompletionService
	user  entities.User
	ref   entities.PlatformRef
}

func newCompletionFixture(t *testing.T) *completionFixture {
	t.Helper()
	store := newMemStore()
	svc, err := NewCompletionService(store, zap.NewNop())
	require.NoError(t, err)
	user := store.addUser(entities.User{TelegramID: int64p(1001), FirstName: "Ира"})
	return &completionFixture{
		store: store,
		svc:   svc,
		user:  user,
		ref:   entities.PlatformRef{Platform: entities.PlatformTelegram, ID: 1001},
	}
}

func (f *completionFixture) submit(day int, kind entities.VerificationType, payload string) (*entities.CompletionResult, error) {
	return f.svc.CompleteTask(context.Background(), entities.Submission{
		User:    f.ref,
		TaskDay: day,
		Kind:    kind,
		Payload: entities.Payload(payload),
	})
}

func TestCompleteTaskQRCodes(t *testing.T) {
	cases := []struct {
		input string
		err   error
	}{
		{`"gym01"`, nil},
		{`"Gym01 "`, nil},
		{`"TEST1"`, nil},
		{`"GYM02"`, exceptions.ErrInvalidCode},
		{`""`, exceptions.ErrInvalidCode},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			f := newCompletionFixture(t)
			f.store.addTask(entities.Task{
				DayNumber:        4,
				CoinsReward:      100,
				VerificationType: entities.VerificationQR,
				VerificationData: map[string]any{"test_code": "TEST1", "qr_code": "GYM01"},
			})

			res, err := f.submit(4, entities.VerificationQR, tc.input)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.Zero(t, f.store.user(f.user.ID).Coins)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(100), res.Reward)
			assert.Equal(t, int64(100), res.Coins)
		})
	}
}

func TestCompleteTaskNotConfigured(t *testing.T) {
	f := newCompletionFixture(t)
	f.store.addTask(entities.Task{DayNumber: 4, VerificationType: entities.VerificationQR})
	f.store.addTask(entities.Task{
		DayNumber:        5,
		VerificationType: entities.VerificationQR,
		VerificationData: map[string]any{"main_code": "ONLY-MAIN"},
	})

	_, err := f.submit(4, "", `"anything"`)
	assert.ErrorIs(t, err, exceptions.ErrNotConfigured)

	_, err = f.submit(5, "", `"ONLY-MAIN"`)
	assert.ErrorIs(t, err, exceptions.ErrNotConfigured)
}

func TestCompleteTaskQROrManualAcceptsEveryCandidate(t *testing.T) {
	for _, code := range []string{`"abcde"`, `"LONG-QR-PAYLOAD"`, `"legacy"`, `"t"`} {
		f := newCompletionFixture(t)
		f.store.addTask(entities.Task{
			DayNumber:        6,
			CoinsReward:      20,
			VerificationType: entities.VerificationQROrManual,
			VerificationData: map[string]any{
				"test_code":   "t",
				"manual_code": "ABCDE",
				"qr_code":     "long-qr-payload",
				"main_code":   "LEGACY",
			},
		})
		_, err := f.submit(6, entities.VerificationAppCode, code)
		assert.NoError(t, err, code)
	}
}

func TestCompleteTaskDoubleCompletion(t *testing.T) {
	f := newCompletionFixture(t)
	task := f.store.addTask(entities.Task{DayNumber: 3, CoinsReward: 30, VerificationType: entities.VerificationSelf})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.submit(3, entities.VerificationSelf, "")
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, exceptions.ErrAlreadyCompleted):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, len(errs)-1, dup)
	assert.Equal(t, 1, f.store.completionCount(f.user.ID, task.ID))
	assert.Equal(t, int64(30), f.store.user(f.user.ID).Coins)
	assert.Equal(t, int64(30), f.store.user(f.user.ID).XP)
}

func TestCompleteTaskStaffCodeBudget(t *testing.T) {
	f := newCompletionFixture(t)
	other := f.store.addUser(entities.User{VKID: int64p(77)})
	f.store.addTask(entities.Task{DayNumber: 7, CoinsReward: 40, VerificationType: entities.VerificationStaffCode})
	f.store.addStaffCode(entities.StaffCode{Code: "COACH", UsageLimit: 1})

	refs := []entities.PlatformRef{f.ref, {Platform: entities.PlatformVK, ID: 77}}
	errs := make([]error, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref entities.PlatformRef) {
			defer wg.Done()
			_, errs[i] = f.svc.CompleteTask(context.Background(), entities.Submission{
				User: ref, TaskDay: 7, Payload: entities.Payload(`"coach"`),
			})
		}(i, ref)
	}
	wg.Wait()

	var ok, invalid int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if assert.ErrorIs(t, err, exceptions.ErrInvalidCode) {
			invalid++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, invalid)
	assert.Equal(t, int64(40), f.store.user(f.user.ID).Coins+f.store.user(other.ID).Coins)
}

func TestCompleteTaskStaffCodeScopedToDay(t *testing.T) {
	f := newCompletionFixture(t)
	f.store.addTask(entities.Task{DayNumber: 7, VerificationType: entities.VerificationStaffCode})
	day8 := 8
	f.store.addStaffCode(entities.StaffCode{Code: "DAY8", TaskDay: &day8, UsageLimit: 5})
	f.store.addStaffCode(entities.StaffCode{Code: "ANYDAY", UsageLimit: 5})

	_, err := f.submit(7, "", `"DAY8"`)
	assert.ErrorIs(t, err, exceptions.ErrInvalidCode)

	_, err = f.submit(7, "", `"anyday"`)
	assert.NoError(t, err)
}

func TestCompleteTaskRollsBackStaffCodeOnFailure(t *testing.T) {
	f := newCompletionFixture(t)
	f.store.addTask(entities.Task{DayNumber: 7, VerificationType: entities.VerificationStaffCode})
	code := f.store.addStaffCode(entities.StaffCode{Code: "COACH", UsageLimit: 1})
	ghost := entities.PlatformRef{Platform: entities.PlatformTelegram, ID: 999}

	_, err := f.svc.CompleteTask(context.Background(), entities.Submission{User: ghost, TaskDay: 7, Payload: entities.Payload(`"COACH"`)})
	require.ErrorIs(t, err, exceptions.ErrUserNotFound)

	f.store.mu.Lock()
	used := f.store.state.staffCodes[code.ID].UsedCount
	f.store.mu.Unlock()
	assert.Zero(t, used)
}

func TestCompleteTaskReviewNotSupported(t *testing.T) {
	f := newCompletionFixture(t)
	f.store.addTask(entities.Task{DayNumber: 9, CoinsReward: 50, VerificationType: entities.VerificationReview})

	for _, payload := range []string{"", `"x"`, `{"photo":"y"}`} {
		_, err := f.submit(9, entities.VerificationSelf, payload)
		assert.ErrorIs(t, err, exceptions.ErrNotSupported)
	}
	assert.Zero(t, f.store.user(f.user.ID).Coins)
}

func TestCompleteTaskSurveySavesAnswers(t *testing.T) {
	f := newCompletionFixture(t)
	f.store.addTask(entities.Task{DayNumber: 1, CoinsReward: 50, VerificationType: entities.VerificationSurvey})

	_, err := f.submit(1, entities.VerificationSurvey, `"not an object"`)
	require.ErrorIs(t, err, exceptions.ErrInvalidPayload)

	res, err := f.submit(1, "", `"{\"goal\":\"strength\",\"has_kids\":false}"`)
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Coins)
	assert.JSONEq(t, `{"goal":"strength","has_kids":false}`, string(f.store.user(f.user.ID).SurveyData))
}

func TestCompleteTaskReferralForm(t *testing.T) {
	f := newCompletionFixture(t)
	f.store.addTask(entities.Task{DayNumber: 10, CoinsReward: 70, VerificationType: entities.VerificationReferralForm})

	_, err := f.submit(10, "", `{"friendName":"Олег"}`)
	require.ErrorIs(t, err, exceptions.ErrInvalidPayload)

	_, err = f.submit(10, entities.VerificationReferralForm, `{"friendName":"Олег","friendPhone":"+79001112233"}`)
	require.NoError(t, err)

	require.Len(t, f.store.state.referrals, 1)
	assert.Equal(t, "Олег", f.store.state.referrals[0].FriendName)
	assert.Equal(t, f.user.ID, f.store.state.referrals[0].UserID)
}

func TestCompleteTaskQuizStoresScore(t *testing.T) {
	f := newCompletionFixture(t)
	task := f.store.addTask(entities.Task{DayNumber: 11, CoinsReward: 25, VerificationType: entities.VerificationQuiz})

	_, err := f.submit(11, entities.VerificationQuiz, `{"total":5}`)
	require.ErrorIs(t, err, exceptions.ErrInvalidPayload)

	_, err = f.submit(11, entities.VerificationQuiz, `{"score":3,"total":5}`)
	require.NoError(t, err)

	completion := f.store.state.completions[[2]int64{f.user.ID, task.ID}]
	assert.Equal(t, "quiz", completion.VerifiedBy)
	var stored map[string]float64
	require.NoError(t, json.Unmarshal(completion.Result, &stored))
	assert.Equal(t, 3.0, stored["score"])
}

func TestCompleteTaskPreconditionOrder(t *testing.T) {
	f := newCompletionFixture(t)
	f.store.addTask(entities.Task{DayNumber: 3, VerificationType: entities.VerificationSelf})

	_, err := f.svc.CompleteTask(context.Background(), entities.Submission{
		User: entities.PlatformRef{Platform: entities.PlatformVK, ID: 5}, TaskDay: 99,
	})
	assert.ErrorIs(t, err, exceptions.ErrUserNotFound)

	_, err = f.submit(99, "", "")
	assert.ErrorIs(t, err, exceptions.ErrTaskNotFound)

	_, err = f.svc.CompleteTask(context.Background(), entities.Submission{TaskDay: 3})
	assert.ErrorIs(t, err, exceptions.ErrInvalidPlatformRef)
}

func TestCompleteTaskVerifiedByDefaultsToTaskType(t *testing.T) {
	f := newCompletionFixture(t)
	task := f.store.addTask(entities.Task{DayNumber: 3, VerificationType: entities.VerificationSelf})

	_, err := f.submit(3, "", "")
	require.NoError(t, err)
	assert.Equal(t, "self", f.store.state.completions[[2]int64{f.user.ID, task.ID}].VerifiedBy)
}
