package funding

// CardRequest is the body of a card top-up or withdrawal.
type CardRequest struct {
	Amount     string `json:"amount"`
	CardNumber string `json:"card_number"`
}

// Response is returned after a successful card operation.
type Response struct {
	Message           string `json:"message"`
	TransactionID     int64  `json:"transaction_id"`
	AcquirerReference string `json:"acquirer_reference"`
}
