package aggregator

// Session is the aggregator-side authorization session for one institution,
// persisted as JSON in the blob store between runs.
type Session struct {
	SessionID string    `json:"session_id"`
	Accounts  []Account `json:"accounts"`
}

// Account is a read-only account reference extracted from a Session.
// UID is the stable key for fetch calls, AccountID.IBAN the stable key
// for storage partitioning.
type Account struct {
	UID       string    `json:"uid"`
	AccountID AccountID `json:"account_id"`
}

// AccountID holds the account identifiers exposed by the aggregator.
type AccountID struct {
	IBAN string `json:"iban"`
}

// Application describes the registered API application.
type Application struct {
	RedirectURLs []string `json:"redirect_urls"`
}

// AuthorizationRequest starts a consent flow for one institution.
type AuthorizationRequest struct {
	Access      AccessScope `json:"access"`
	ASPSP       ASPSP       `json:"aspsp"`
	State       string      `json:"state"`
	RedirectURL string      `json:"redirect_url"`
	PSUType     string      `json:"psu_type"`
}

// AccessScope bounds the validity of the requested consent.
type AccessScope struct {
	ValidUntil string `json:"valid_until"`
}

// ASPSP identifies the institution a consent request targets.
type ASPSP struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// RawTransaction is the aggregator-native transaction record.
type RawTransaction struct {
	BookingDate           string   `json:"booking_date"`
	TransactionAmount     Amount   `json:"transaction_amount"`
	CreditDebitIndicator  string   `json:"credit_debit_indicator"`
	RemittanceInformation []string `json:"remittance_information"`
}

// Amount is an unsigned decimal magnitude with its currency.
type Amount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// CreditDebitIndicator values used by the aggregator.
const (
	IndicatorCredit = "CRDT"
	IndicatorDebit  = "DBIT"
)
