package domain

import "errors"

var (
	// ErrUnknownColumn is returned when a requested column is not in the dataset.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotNumeric is returned when a numeric operation targets a non-numeric column.
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrNoData is returned when an operation has no non-missing values to work on.
	ErrNoData = errors.New("no data")
	// ErrInvalidRange is returned when a clip bound is not a number.
	ErrInvalidRange = errors.New("invalid range: bound is not a number")
	// ErrNoTimestamps is returned when no value in a column parses as a time.
	ErrNoTimestamps = errors.New("no parseable timestamps")
	// ErrDatasetNotFound is returned when no dataset is registered under a name.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrUnsupportedFile is returned for uploads that are not CSV or a supported archive.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
