package entities_test

import (
	"testing"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadCode(t *testing.T) {
	cases := map[string]string{
		`"GYM01"`:      "GYM01",
		`" gym01 "`:    "gym01",
		`4521`:         "4521",
		`{"code":"x"}`: "",
		`null`:         "",
		``:             "",
		`["a"]`:        "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, entities.Payload(raw).Code(), "payload %s", raw)
	}
}

func TestPayloadObjectUnwrapsEncodedString(t *testing.T) {
	obj, err := entities.Payload(`"{\"goal\":\"strength\"}"`).Object()
	require.NoError(t, err)
	assert.JSONEq(t, `{"goal":"strength"}`, string(obj))

	obj, err = entities.Payload(`{"goal":"cardio"}`).Object()
	require.NoError(t, err)
	assert.JSONEq(t, `{"goal":"cardio"}`, string(obj))

	_, err = entities.Payload(`"plain"`).Object()
	assert.ErrorIs(t, err, exceptions.ErrInvalidPayload)

	_, err = entities.Payload(`[1,2]`).Object()
	assert.ErrorIs(t, err, exceptions.ErrInvalidPayload)
}

func TestReferralFormValidate(t *testing.T) {
	var form entities.ReferralForm
	require.NoError(t, entities.Payload(`{"friendName":" Ann ","friendPhone":"+7 900"}`).Decode(&form))
	require.NoError(t, form.Validate())
	assert.Equal(t, "Ann", form.FriendName)

	missing := entities.ReferralForm{FriendName: "Ann"}
	assert.ErrorIs(t, missing.Validate(), exceptions.ErrInvalidPayload)
}

func TestQuizResultRequiresScore(t *testing.T) {
	var quiz entities.QuizResult
	require.NoError(t, entities.Payload(`{"total":5}`).Decode(&quiz))
	assert.ErrorIs(t, quiz.Validate(), exceptions.ErrInvalidPayload)

	require.NoError(t, entities.Payload(`{"score":4,"total":5}`).Decode(&quiz))
	assert.NoError(t, quiz.Validate())
}

func TestSubmissionVerifiedBy(t *testing.T) {
	task := &entities.Task{VerificationType: entities.VerificationQROrManual}

	assert.Equal(t, "qr_or_manual", entities.Submission{}.VerifiedBy(task))
	assert.Equal(t, "qr", entities.Submission{Kind: entities.VerificationQR}.VerifiedBy(task))
}
