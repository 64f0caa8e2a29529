package errors

import "errors"

// Game table errors.
var (
	ErrTableNotFound   = errors.New("table not found")
	ErrTableFull       = errors.New("table is full")
	ErrAlreadySeated   = errors.New("already seated at a table")
	ErrNotSeated       = errors.New("not seated at this table")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrRoundInProgress = errors.New("round in progress")
	ErrInvalidBet      = errors.New("invalid bet amount")
	ErrInvalidSplit    = errors.New("hand cannot be split")
	ErrInvalidDouble   = errors.New("hand cannot be doubled")
	ErrInvalidAction   = errors.New("invalid action")
)

// Wallet errors.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrBonusAlreadyClaimed = errors.New("daily bonus already claimed")
	ErrOrderNotFound       = errors.New("recharge order not found")
	ErrOrderAlreadyPaid    = errors.New("recharge order already paid")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrPackageNotFound     = errors.New("recharge package not found")
	ErrInvalidPackage      = errors.New("invalid recharge package")
)

// Auth and user errors.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserBanned          = errors.New("user is banned")
	ErrInvalidUserStatus   = errors.New("invalid user status")
	ErrInvalidPhone        = errors.New("invalid phone number")
	ErrInvalidSMSCode      = errors.New("invalid sms code")
	ErrSMSCodeExpired      = errors.New("sms code expired")
	ErrSMSCodeThrottled    = errors.New("sms code requested too frequently")
	ErrInviteCodeNotFound  = errors.New("invite code not found")
	ErrAlreadyBoundInviter = errors.New("inviter already bound")
)

// Admin errors.
var (
	ErrAdminNotFound        = errors.New("admin not found")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
	ErrAdminDisabled        = errors.New("admin account disabled")
)
