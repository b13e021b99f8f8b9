package analysis

// BadRequestError reports invalid client input. Its reason is safe to show
// verbatim.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return e.Reason
}

// PaymentRequiredError reports a missing or unverified payment reference.
type PaymentRequiredError struct {
	Reason string
}

func (e *PaymentRequiredError) Error() string {
	return e.Reason
}
