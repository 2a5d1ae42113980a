package aurorav1

import "google.golang.org/protobuf/types/known/timestamppb"

// Amounts are decimal strings with two fraction digits.

type GetEarningsRequest struct{}

type Earnings struct {
	PackageEarnings  string `json:"package_earnings"`
	ReferralEarnings string `json:"referral_earnings"`
	CombinedEarnings string `json:"combined_earnings"`
}

type GetEarningsResponse struct {
	Earnings *Earnings `json:"earnings"`
}

type ListPackagesRequest struct{}

type Package struct {
	Id              string                 `json:"id"`
	PackageName     string                 `json:"package_name"`
	Principal       string                 `json:"principal"`
	Profit          string                 `json:"profit"`
	StartTime       *timestamppb.Timestamp `json:"start_time"`
	MaturityTime    *timestamppb.Timestamp `json:"maturity_time"`
	ColorTag        string                 `json:"color_tag,omitempty"`
	PercentComplete string                 `json:"percent_complete"`
	CurrentValue    string                 `json:"current_value"`
	ReadyToClaim    bool                   `json:"ready_to_claim"`
	State           string                 `json:"state"`
}

type ListPackagesResponse struct {
	Packages []*Package `json:"packages"`
}

type ClaimPackageRequest struct {
	PositionId string `json:"position_id"`
}

type ClaimPackageResponse struct {
	PositionId    string                 `json:"position_id"`
	Payout        string                 `json:"payout"`
	Earnings      *Earnings              `json:"earnings"`
	TransactionId string                 `json:"transaction_id"`
	ClaimedAt     *timestamppb.Timestamp `json:"claimed_at"`
}

type RequestWithdrawalRequest struct {
	Source        string `json:"source"` // PACKAGE or REFERRAL
	Bank          string `json:"bank"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
}

type RequestWithdrawalResponse struct {
	RequestId string                 `json:"request_id"`
	Status    string                 `json:"status"`
	Earnings  *Earnings              `json:"earnings"`
	CreatedAt *timestamppb.Timestamp `json:"created_at"`
}

type RequestDepositRequest struct {
	Amount          string `json:"amount"`
	TopUpMode       string `json:"top_up_mode"`
	AccountName     string `json:"account_name"`
	AccountNumber   string `json:"account_number"`
	ReceiptFileName string `json:"receipt_file_name"`
	Receipt         []byte `json:"receipt"` // base64 on the wire
}

type RequestDepositResponse struct {
	RequestId  string                 `json:"request_id"`
	Status     string                 `json:"status"`
	ReceiptUrl string                 `json:"receipt_url"`
	CreatedAt  *timestamppb.Timestamp `json:"created_at"`
}

type Transaction struct {
	Id          string                 `json:"id"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Details     string                 `json:"details,omitempty"`
	Amount      string                 `json:"amount"`
	Attachment  string                 `json:"attachment,omitempty"`
	Date        *timestamppb.Timestamp `json:"date"`
}

type ListTransactionsRequest struct {
	Tab  string `json:"tab"` // EARNINGS, WITHDRAWAL or DEPOSIT
	Page int32  `json:"page"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
	// Recent holds entries recorded by this session that the list may not show yet
	Recent  []*Transaction `json:"recent"`
	Total   int32          `json:"total"`
	HasNext bool           `json:"has_next"`
}

type Bounty struct {
	ReferredMemberId    string                 `json:"referred_member_id"`
	ReferredUsername    string                 `json:"referred_username"`
	Level               string                 `json:"level"`
	TotalBountyEarnings string                 `json:"total_bounty_earnings"`
	Date                *timestamppb.Timestamp `json:"date"`
}

type ListBountiesRequest struct {
	Level string `json:"level"` // ALLY or LEGION
	Page  int32  `json:"page"`
}

type ListBountiesResponse struct {
	Bounties []*Bounty `json:"bounties"`
	Total    int32     `json:"total"`
	HasNext  bool      `json:"has_next"`
}

type RefreshRequest struct{}

type RefreshResponse struct {
	Earnings     *Earnings `json:"earnings"`
	PackageCount int32     `json:"package_count"`
}
