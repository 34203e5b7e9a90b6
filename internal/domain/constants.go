package domain

const (
	DefaultCurrency = "NGN"

	DirectionDebit  = "debit"
	DirectionCredit = "credit"

	TxTypeAirtime    = "airtime"
	TxTypeData       = "data"
	TxTypeEducation  = "education"
	TxTypeDeposit    = "deposit"
	TxTypeCryptoBuy  = "crypto_buy"
	TxTypeCryptoSell = "crypto_sell"

	TxStatusPending = "PENDING"
	TxStatusSuccess = "SUCCESS"
	TxStatusFailed  = "FAILED"

	KYCStatusPending  = "pending"
	KYCStatusApproved = "approved"
	KYCStatusRejected = "rejected"

	KYCActionApprove = "approve"
	KYCActionReject  = "reject"

	KYCDocumentBVN      = "bvn"
	KYCDocumentIDCard   = "id_card"
	KYCDocumentPassport = "passport"

	// Tier required before a dedicated virtual account can be issued.
	VirtualAccountMinTier = 2

	ProfileStatusActive    = "active"
	ProfileStatusSuspended = "suspended"
	ProfileStatusDeleted   = "deleted"

	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"

	ChannelEmail = "email"
	ChannelSMS   = "sms"

	RecipientModeSingle = "single"
	RecipientModeAll    = "all"
	RecipientModeAdmins = "admins"

	// Outbox event lifecycle.
	OutboxStatusPending    = "pending"
	OutboxStatusProcessing = "processing"
	OutboxStatusDispatched = "dispatched"
	OutboxStatusParked     = "parked"

	EventAccountProvision = "account.provision"
)
