package contracts

import "errors"

// ErrInvalidInput marks a caller contract violation (unsorted or duplicate
// series dates, empty or duplicate symbols). Missing data is never an error.
// ⭐ SSOT: 코어 계약 위반은 이 sentinel 하나로만 표현
var ErrInvalidInput = errors.New("invalid input")

// ErrNoReport is returned by a ReportStore that holds no report yet
var ErrNoReport = errors.New("no screening report stored")
