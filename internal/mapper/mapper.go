package mapper

import (
	"errors"
	"net/http"

	"gorod-sporta/internal/core/domain/exceptions"
)

type businessError struct {
	err         error
	adminStatus int
	message     string
}

// businessErrors lists every soft failure with its Mini App message and the
// status the admin API answers with.
var businessErrors = []businessError{
	{exceptions.ErrUserNotFound, http.StatusNotFound, "Пользователь не найден"},
	{exceptions.ErrTaskNotFound, http.StatusNotFound, "Задание не найдено"},
	{exceptions.ErrItemNotFound, http.StatusNotFound, "Приз не найден"},
	{exceptions.ErrReviewNotFound, http.StatusNotFound, "Отзыв не найден"},
	{exceptions.ErrAlreadyCompleted, http.StatusConflict, "Задание уже выполнено"},
	{exceptions.ErrInvalidCode, http.StatusBadRequest, "Неверный код. Попробуй ещё раз."},
	{exceptions.ErrNotConfigured, http.StatusConflict, "Задание не настроено"},
	{exceptions.ErrNotSupported, http.StatusBadRequest, "Это задание засчитывается после проверки"},
	{exceptions.ErrInvalidPayload, http.StatusBadRequest, "Ошибка сохранения данных"},
	{exceptions.ErrInsufficientBalance, http.StatusConflict, "Недостаточно спортиков"},
	{exceptions.ErrPhoneTaken, http.StatusConflict, "Этот номер уже привязан к другому аккаунту"},
	{exceptions.ErrInvalidPlatformRef, http.StatusBadRequest, "Не удалось определить пользователя"},
	{exceptions.ErrReviewAlreadySubmitted, http.StatusConflict, "Отзыв уже отправлен на проверку"},
	{exceptions.ErrReviewNotPending, http.StatusConflict, "Отзыв уже обработан"},
	{exceptions.ErrInvalidPhoto, http.StatusBadRequest, "Загрузите изображение размером до 10 МБ"},
	{exceptions.ErrInvalidInput, http.StatusBadRequest, "Некорректный запрос"},
	{exceptions.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{exceptions.ErrForbidden, http.StatusForbidden, "Forbidden"},
}

func lookup(err error) (businessError, bool) {
	for _, b := range businessErrors {
		if errors.Is(err, b.err) {
			return b, true
		}
	}
	return businessError{}, false
}

// IsBusiness reports whether err is an expected outcome rather than an
// infrastructure failure.
func IsBusiness(err error) bool {
	_, ok := lookup(err)
	return ok
}

// Error maps an error for the Mini App API. Business errors keep
// status 200 and carry a user-facing message; the client only inspects the
// error field. Anything else is a 500 with the underlying message.
func Error(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	if b, ok := lookup(err); ok {
		if b.adminStatus == http.StatusUnauthorized || b.adminStatus == http.StatusForbidden {
			return b.adminStatus, b.message
		}
		return http.StatusOK, b.message
	}
	return http.StatusInternalServerError, err.Error()
}

// AdminError maps an error for the admin API, which uses real statuses.
func AdminError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	if b, ok := lookup(err); ok {
		return b.adminStatus, b.message
	}
	return http.StatusInternalServerError, err.Error()
}
