package payment

// webpayCreateRequest is the body of a transaction create call
type webpayCreateRequest struct {
	BuyOrder  string `json:"buy_order"`
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
	ReturnURL string `json:"return_url"`
}

// webpayCreateResponse is returned by a transaction create call
type webpayCreateResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// webpayCardDetail holds the masked card of a committed transaction
type webpayCardDetail struct {
	CardNumber string `json:"card_number"`
}

// webpayCommitResponse is returned by a transaction commit call
type webpayCommitResponse struct {
	VCI                string           `json:"vci"`
	Amount             int64            `json:"amount"`
	Status             string           `json:"status"`
	BuyOrder           string           `json:"buy_order"`
	SessionID          string           `json:"session_id"`
	CardDetail         webpayCardDetail `json:"card_detail"`
	AccountingDate     string           `json:"accounting_date"`
	TransactionDate    string           `json:"transaction_date"`
	AuthorizationCode  string           `json:"authorization_code"`
	PaymentTypeCode    string           `json:"payment_type_code"`
	ResponseCode       int              `json:"response_code"`
	InstallmentsAmount int64            `json:"installments_amount"`
	InstallmentsNumber int              `json:"installments_number"`
}

// webpayErrorResponse is the body of a non-2xx answer
type webpayErrorResponse struct {
	ErrorMessage string `json:"error_message"`
}
