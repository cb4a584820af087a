package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrMissingBarcode  = errors.New("product barcode is required")
	ErrMissingName     = errors.New("product name is required")
)
