package domain

import "errors"

// ErrInvalidInput: общий класс ошибок валидации входных данных.
var ErrInvalidInput = errors.New("invalid input")

// InputError описывает конкретное нарушение валидации. Code используется
// как ключ локализованного сообщения.
type InputError struct {
	Code string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Code
}

// Is позволяет классифицировать любую InputError через errors.Is(err, ErrInvalidInput).
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

var (
	// Не переданы date, partnerId или orderItems.
	ErrFieldsRequired = &InputError{Code: "fields_required"}
	// Дата не распознана.
	ErrInvalidDate = &InputError{Code: "date_invalid"}
	// Дата раньше текущего момента.
	ErrDateInPast = &InputError{Code: "date_in_past"}
	// orderItems не массив либо позиция без productId/quantity.
	ErrInvalidItemsFormat = &InputError{Code: "items_format_invalid"}
	// Пустой список позиций.
	ErrEmptyItems = &InputError{Code: "items_empty"}
	// Партнёр не существует или удалён.
	ErrPartnerNotFound = &InputError{Code: "partner_not_found"}
	// Хотя бы один товар не существует или удалён.
	ErrProductNotFound = &InputError{Code: "product_not_found"}
)

var (
	// ErrOrderNotFound возвращается, если заказа нет или он помечен удалённым.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists: попытка повторно сохранить заказ с тем же ID.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrOutboxPublish: ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsInvalidInput проверяет, относится ли ошибка к ошибкам валидации.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// InputErrorCode возвращает код нарушения, если err содержит InputError.
func InputErrorCode(err error) (string, bool) {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Code, true
	}
	return "", false
}
