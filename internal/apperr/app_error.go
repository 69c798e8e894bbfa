package apperr

import "github.com/tuanvumaihuynh/catalog-sync/pkg/zerror"

const (
	ValidationErrorCode      = "VALIDATION_FAILED"
	SourceConfigErrorCode    = "SOURCE_CONFIG_INVALID"
	ProductNotFoundErrorCode = "PRODUCT_NOT_FOUND"
	ImageNotFoundErrorCode   = "IMAGE_NOT_FOUND"
	UnauthorizedErrorCode    = "UNAUTHORIZED"
)

var (
	ValidationErr      = zerror.NewValidationFailed(ValidationErrorCode, "validation error")
	SourceConfigErr    = zerror.NewUnprocessableEntity(SourceConfigErrorCode, "source configuration is incomplete")
	ProductNotFoundErr = zerror.NewNotFound(ProductNotFoundErrorCode, "product not found")
	ImageNotFoundErr   = zerror.NewNotFound(ImageNotFoundErrorCode, "image not found")
	UnauthorizedErr    = zerror.NewUnauthorized(UnauthorizedErrorCode, "invalid credentials")
)
