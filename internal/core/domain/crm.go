package domain

// CustomerProfile is the CRM contact record for a policyholder.
type CustomerProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Location     string `json:"location"`
	MemberSince  int    `json:"memberSince"`
	PolicyNumber string `json:"policyNumber"`
}

// PolicyDetails is a single insurance policy record.
type PolicyDetails struct {
	ID             string  `json:"id"`
	PolicyNumber   string  `json:"policyNumber"`
	Type           string  `json:"type"`
	PremiumMonthly float64 `json:"premiumMonthly"`
	Deductible     float64 `json:"deductible"`
	CoverageAmount float64 `json:"coverageAmount"`
	RenewalDate    string  `json:"renewalDate"`
	PaymentStatus  string  `json:"paymentStatus"`
}

// Claim is a single claim case attached to a policy.
type Claim struct {
	ID          string `json:"id"`
	ClaimNumber string `json:"claimNumber"`
	Subject     string `json:"subject"`
	Status      string `json:"status"`
	Description string `json:"description"`
	FiledDate   string `json:"filedDate"`
	ClosedDate  string `json:"closedDate,omitempty"`
	Adjuster    string `json:"adjuster,omitempty"`
}

// Payment is one billing-history entry for a policy.
type Payment struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
	Date   string  `json:"date"`
	Method string  `json:"method"`
}

// ClaimChange is a decoded claim-update push message. ContactID is the
// customer identity key when the CRM associates one, empty otherwise.
type ClaimChange struct {
	ID         string
	CaseNumber string
	Status     string
	ContactID  string
}

// PolicyChange is a decoded policy-update push message. Raw carries the
// full changed-record snapshot as sent by the CRM.
type PolicyChange struct {
	ID   string
	Name string
	Raw  map[string]any
}
