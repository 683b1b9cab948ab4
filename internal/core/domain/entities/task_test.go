package entities_test

import (
	"testing"

	"gorod-sporta/internal/core/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCodeQRCandidates(t *testing.T) {
	codes, err := entities.DecodeVerificationCodes(map[string]any{
		"test_code": "TEST1",
		"qr_code":   "GYM01",
	})
	require.NoError(t, err)

	cases := []struct {
		input string
		want  bool
	}{
		{"gym01", true},
		{"Gym01 ", true},
		{"TEST1", true},
		{"GYM02", false},
		{"", false},
		{"   ", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, entities.MatchCode(tc.input, codes.QRCandidates()), "input %q", tc.input)
	}
}

func TestQRCandidatesSkipMainCode(t *testing.T) {
	codes := entities.VerificationCodes{MainCode: "LEGACY"}

	assert.Empty(t, codes.QRCandidates())
	assert.Equal(t, []string{"LEGACY"}, codes.AllCandidates())
}

func TestDecodeVerificationCodesNumeric(t *testing.T) {
	codes, err := entities.DecodeVerificationCodes(map[string]any{
		"manual_code": 4521,
		"extra":       "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "4521", codes.ManualCode)
	assert.True(t, entities.MatchCode(" 4521", codes.AllCandidates()))
}

func TestDecodeVerificationCodesEmpty(t *testing.T) {
	codes, err := entities.DecodeVerificationCodes(nil)
	require.NoError(t, err)
	assert.Empty(t, codes.AllCandidates())
}

func TestTaskUpdateValidate(t *testing.T) {
	valid := entities.TaskUpdate{Title: " Day ", CoinsReward: 10, VerificationType: entities.VerificationSelf}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "Day", valid.Title)

	badType := entities.TaskUpdate{Title: "x", VerificationType: "scan"}
	assert.Error(t, badType.Validate())

	negative := entities.TaskUpdate{Title: "x", CoinsReward: -1, VerificationType: entities.VerificationQR}
	assert.Error(t, negative.Validate())
}
