package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fragmede/purse/internal/session"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MFAConfig is issued by the server when the account has no second factor yet.
type MFAConfig struct {
	Secret string `json:"secret,omitempty"`
	URL    string `json:"url,omitempty"`
}

// LoginResponse is the profile returned on a successful password check.
type LoginResponse struct {
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	MobileCountryCode string    `json:"mobileCountryCode"`
	MobileNumber      string    `json:"mobileNumber"`
	IsMFAConfigured   bool      `json:"isMfaConfigured"`
	MFAConfig         MFAConfig `json:"mfaConfig,omitempty"`
}

// Profile converts the login response to the session profile.
func (r LoginResponse) Profile() session.Profile {
	return session.Profile{
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		Username:          r.Username,
		MobileCountryCode: r.MobileCountryCode,
		MobileNumber:      r.MobileNumber,
	}
}

// NeedsMFASetup reports whether the user must enrol a TOTP secret before the
// code can be verified.
func (r LoginResponse) NeedsMFASetup() bool {
	return !r.IsMFAConfigured && r.MFAConfig.Secret != ""
}

// NeedsMFA reports whether a second factor is required to finish logging in.
func (r LoginResponse) NeedsMFA() bool {
	return r.IsMFAConfigured || r.MFAConfig.Secret != ""
}

// SignUpRequest is the body of POST /signup.
type SignUpRequest struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	MobileNumber string  `json:"mobile_number"`
}

// UpdateProfileRequest is the body of PUT /users/profile.
type UpdateProfileRequest struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	MobileNumber string  `json:"mobile_number"`
}

// ChangePasswordRequest is the body of PATCH /change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest is the body of PATCH /password-reset/reset.
type PasswordResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ConfigureMFARequest enrols the secret issued at login.
type ConfigureMFARequest struct {
	Email   string `json:"email"`
	Secret  string `json:"secret"`
	MFACode string `json:"mfa_code"`
}

// VerifyMFARequest completes a login for an enrolled account.
type VerifyMFARequest struct {
	Email   string `json:"email"`
	MFACode string `json:"mfa_code"`
}

// Balance is a single-currency balance.
type Balance struct {
	ID        int     `json:"id"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// BalanceHistory is one deposit, withdrawal or exchange on a balance.
type BalanceHistory struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Type      string  `json:"type"`
	CreatedAt string  `json:"createdAt"`
}

// AmountRequest is the body of deposit and withdraw.
type AmountRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ExchangeRequest is the body of PATCH /balances/currency-exchange.
type ExchangeRequest struct {
	FromAmount float64 `json:"from_amount"`
	ToCurrency string  `json:"to_currency"`
}

// Preview actions.
const (
	PreviewAmountToSend    = "amountToSend"
	PreviewAmountToReceive = "amountToReceive"
)

// PreviewExchangeRequest asks the server to price an exchange.
type PreviewExchangeRequest struct {
	ActionType   string  `json:"action_type"`
	FromAmount   float64 `json:"from_amount,omitempty"`
	FromCurrency string  `json:"from_currency,omitempty"`
	ToAmount     float64 `json:"to_amount,omitempty"`
	ToCurrency   string  `json:"to_currency,omitempty"`
}

// PreviewExchangeResponse is the server's price for an exchange.
type PreviewExchangeResponse struct {
	ActionType   string  `json:"actionType"`
	FromAmount   float64 `json:"fromAmount"`
	FromCurrency string  `json:"fromCurrency"`
	ToAmount     float64 `json:"toAmount"`
	ToCurrency   string  `json:"toCurrency"`
}

// WalletAmount is one currency held in a wallet.
type WalletAmount struct {
	WalletID  int     `json:"wallet_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// Wallet groups currency amounts under a wallet type.
type Wallet struct {
	ID             int            `json:"id"`
	WalletType     string         `json:"walletType"`
	WalletTypeID   int            `json:"walletTypeID"`
	UserID         int            `json:"userID"`
	CreatedAt      string         `json:"createdAt"`
	CurrencyAmount []WalletAmount `json:"currencyAmount"`
}

// WalletType is one of the wallet kinds a user may open.
type WalletType struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// CreateWalletRequest is the body of POST /wallet.
type CreateWalletRequest struct {
	Type     string  `json:"type"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// Wallet update operations.
const (
	WalletTopUp   = "topup"
	WalletCashOut = "cashout"
)

// UpdateWalletRequest is the body of PUT /wallet/update/{id}/{operation}.
type UpdateWalletRequest struct {
	CurrencyAmount []WalletAmount `json:"currency_amount"`
}

// Beneficiary is a saved transfer recipient.
type Beneficiary struct {
	BeneficiaryID     int    `json:"beneficiaryID"`
	IsDeleted         int    `json:"isDeleted"`
	FirstName         string `json:"beneficiaryFirstName"`
	LastName          string `json:"beneficiaryLastName"`
	Email             string `json:"beneficiaryEmail"`
	Username          string `json:"beneficiaryUsername"`
	IsActive          int    `json:"active"`
	MobileCountryCode string `json:"beneficiaryMobileCountryCode"`
	MobileNumber      string `json:"beneficiaryMobileNumber"`
}

// Mobile returns the full mobile number with country code.
func (b Beneficiary) Mobile() string {
	if b.MobileCountryCode == "" {
		return b.MobileNumber
	}
	return b.MobileCountryCode + " " + b.MobileNumber
}

// CreateBeneficiaryRequest is the body of POST /beneficiary.
type CreateBeneficiaryRequest struct {
	MobileCountryCode string `json:"mobile_country_code"`
	MobileNumber      string `json:"mobile_number"`
}

// UpdateBeneficiaryRequest soft-deletes or restores a beneficiary.
type UpdateBeneficiaryRequest struct {
	IsDeleted     int `json:"is_deleted"`
	BeneficiaryID int `json:"beneficiary_id"`
}

// Transaction is a transfer between two users.
type Transaction struct {
	SenderID                int     `json:"sender_id"`
	BeneficiaryID           int     `json:"beneficiary_id"`
	SenderUsername          string  `json:"sender_username"`
	SenderMobileNumber      string  `json:"sender_mobile_number"`
	BeneficiaryUsername     string  `json:"beneficiary_username"`
	BeneficiaryMobileNumber string  `json:"beneficiary_mobile_number"`
	SourceAmount            float64 `json:"source_amount"`
	SourceCurrency          string  `json:"source_currency"`
	DestinationAmount       float64 `json:"destination_amount"`
	DestinationCurrency     string  `json:"destination_currency"`
	SourceOfTransfer        string  `json:"source_of_transfer"`
	Status                  string  `json:"status"`
	CreatedAt               string  `json:"created_at"`
}

// Key identifies a transaction across polls. The API exposes no id.
func (t Transaction) Key() string {
	return fmt.Sprintf("%d|%d|%s|%.4f|%s", t.SenderID, t.BeneficiaryID, t.CreatedAt, t.SourceAmount, t.SourceCurrency)
}

// CreateTransactionRequest is the body of POST /transaction.
type CreateTransactionRequest struct {
	SenderWalletID               int     `json:"sender_wallet_id"`
	SourceCurrency               string  `json:"source_currency"`
	SourceAmount                 float64 `json:"source_amount"`
	BeneficiaryMobileCountryCode string  `json:"beneficiary_mobile_country_code"`
	BeneficiaryMobileNumber      string  `json:"beneficiary_mobile_number"`
}

// Pagination headers.
const (
	HeaderPage            = "X-Page"
	HeaderPageSize        = "X-Page-Size"
	HeaderTotal           = "X-Total"
	HeaderTotalPages      = "X-Total-Pages"
	HeaderHasNextPage     = "X-Has-Next-Page"
	HeaderHasPreviousPage = "X-Has-Previous-Page"
)

// Page describes where a listing sits in the full result set.
type Page struct {
	Page            int  `json:"page"`
	PageSize        int  `json:"pageSize"`
	TotalRecords    int  `json:"totalRecords"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// TransactionPage is one page of transactions.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Page         Page          `json:"page"`
	FetchedAt    time.Time     `json:"fetchedAt"`
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
