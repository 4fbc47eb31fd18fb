package shared

// ValidateProductID rejects product ids below 1
func ValidateProductID(productID int) error {
	if productID < 1 {
		return NewDomainErrorf(CodeInvalidInput, "Invalid productId: %d", productID)
	}
	return nil
}

