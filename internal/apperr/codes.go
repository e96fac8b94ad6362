package apperr

// 认证相关
var (
	ErrDuplicateEmail        = New(KindDuplicate, "DuplicateEmail", "Email already exists")
	ErrInvalidCredentials    = New(KindUnauthorized, "InvalidCredentials", "Invalid email or password")
	ErrNotVerified           = New(KindForbidden, "NotVerified", "Please verify your email before logging in")
	ErrAlreadyVerified       = New(KindValidation, "AlreadyVerified", "Email already verified")
	ErrInvalidToken          = New(KindValidation, "InvalidToken", "Invalid verification token")
	ErrExpiredToken          = New(KindValidation, "ExpiredToken", "Verification token has expired")
	ErrInvalidOrExpiredToken = New(KindValidation, "InvalidOrExpiredToken", "Invalid or expired reset token")
	ErrSignatureMismatch     = New(KindUnauthorized, "SignatureMismatch", "Invalid signature")
	ErrNoAccountForWallet    = New(KindNotFound, "NoAccountForWallet", "No account found for this wallet. Please register or link your wallet to an existing account.")
	ErrEmailNotFound         = New(KindNotFound, "EmailNotFound", "Email not found")
	ErrUserNotFound          = New(KindNotFound, "UserNotFound", "User not found")
	ErrWalletAlreadyLinked   = New(KindDuplicate, "WalletAlreadyLinked", "Wallet already linked to another account")
	ErrIncorrectPassword     = New(KindUnauthorized, "IncorrectPassword", "Current password is incorrect")
	ErrAuthRequired          = New(KindUnauthorized, "Unauthorized", "Authentication required")
	ErrSessionInvalid        = New(KindUnauthorized, "InvalidSession", "Invalid token")
	ErrSessionExpired        = New(KindUnauthorized, "SessionExpired", "Token expired")
	ErrAccountNotVerified    = New(KindForbidden, "AccountNotVerified", "Account not verified")
	ErrTooManyRequests       = New(KindTooManyRequests, "TooManyRequests", "Too many requests, please try again later")
)

// 众筹活动相关
var (
	ErrWalletNotLinked       = New(KindForbidden, "WalletNotLinked", "Please link your wallet first")
	ErrAuthorizationMismatch = New(KindForbidden, "AuthorizationMismatch", "Only the campaign creator can register this campaign")
	ErrForbidden             = New(KindForbidden, "Forbidden", "You are not allowed to modify this campaign")
	ErrCampaignNotFound      = New(KindNotFound, "CampaignNotFound", "Campaign not found")
	ErrCampaignExists        = New(KindDuplicate, "DuplicateCampaign", "Campaign already registered for this contract address")
)

// 上传相关
var (
	ErrNoFile          = New(KindValidation, "NoFile", "No image uploaded")
	ErrInvalidFileType = New(KindValidation, "InvalidFileType", "Invalid file type. Only JPEG, PNG, WebP, and GIF images are allowed.")
	ErrFileTooLarge    = New(KindValidation, "FileTooLarge", "File too large. Maximum size is 5MB.")
)
