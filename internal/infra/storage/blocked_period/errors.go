package blocked_period

import "errors"

var (
	// ErrDuplicate возвращается при нарушении уникального индекса (block_date, start_time)
	ErrDuplicate = errors.New("blocked_period.repository: block already exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("blocked_period.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("blocked_period.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("blocked_period.repository: failed to scan row")
)
