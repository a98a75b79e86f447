package service

import (
	"errors"
	"fmt"
)

var (
	ErrConnectionExhausted = errors.New("gateway: connection attempts exhausted")
	ErrHistoryUnavailable  = errors.New("gateway: price history unavailable")
	ErrOrderUnavailable    = errors.New("gateway: order submission unavailable")
	ErrSettlementUnknown   = errors.New("gateway: settlement unknown")

	ErrNotSettled       = errors.New("gateway: order not settled yet")
	ErrMalformedHistory = errors.New("gateway: malformed history")
	ErrNotConnected     = errors.New("gateway: not connected")
	// ErrResponseLost запрос ушёл брокеру, ответ не получен: результат неизвестен.
	ErrResponseLost = errors.New("gateway: request sent, response lost")
)

// ExhaustedError все попытки операции провалились.
// errors.Is совпадает с Kind, Unwrap отдаёт последнюю ошибку транспорта.
type ExhaustedError struct {
	Kind     error
	Op       string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %s failed after %d attempts: %v", e.Kind, e.Op, e.Attempts, e.Last)
}

func (e *ExhaustedError) Is(target error) bool { return target == e.Kind }

func (e *ExhaustedError) Unwrap() error { return e.Last }
