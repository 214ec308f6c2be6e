package app

import (
	"errors"

	"github.com/jwulff/scribe/internal/extract"
	"github.com/jwulff/scribe/internal/session"
)

var preconditionText = map[string]string{
	"no doctor selected":    "Выберите врача",
	"patient name is empty": "Введите имя пациента",
}

// describeError renders a controller error for the operator.
func describeError(err error) string {
	var (
		pe  *session.PreconditionError
		se  *session.StreamError
		per *session.PersistenceError
		svc *extract.ServiceError
		mal *extract.MalformedResponseError
	)
	switch {
	case errors.As(err, &pe):
		if text, ok := preconditionText[pe.Reason]; ok {
			return text
		}
		return "Проверьте настройки: " + pe.Reason
	case errors.Is(err, session.ErrBusy):
		return "Сеанс уже идёт"
	case errors.Is(err, session.ErrNotRecording):
		return "Запись не ведётся"
	case errors.Is(err, session.ErrEmptyTranscript):
		return "Пустая транскрипция: речь не распознана"
	case errors.As(err, &se):
		return "Ошибка распознавания речи: " + se.Err.Error()
	case errors.Is(err, extract.ErrTemplateNotFound):
		return "Нет шаблона для специализации врача"
	case errors.As(err, &svc):
		return "Сервис извлечения недоступен: " + svc.Err.Error()
	case errors.As(err, &mal):
		return "Некорректный ответ сервиса извлечения"
	case errors.As(err, &per):
		return "Ошибка сохранения: " + per.Error()
	default:
		return "Ошибка: " + err.Error()
	}
}
