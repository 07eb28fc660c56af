package conductor

import "errors"

var (
	// ErrSessionNotFound возвращается, когда сессия кондуктора не найдена
	ErrSessionNotFound = errors.New("conductor.repository: session not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("conductor.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("conductor.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("conductor.repository: failed to scan row")
)
