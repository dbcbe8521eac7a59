/*
Package errs provides custom error types and application-level error code constants.

Codes are grouped by range so callers can classify any error without knowing
the specific code: 1xxx validation, 2xxx request lifecycle, 3xxx authentication, 4xxx not found, 5xxx internal.
*/
package errs

// 1xxx: Validation Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrUsernameRequired indicates an empty username on login or registration.
	ErrUsernameRequired = 1101

	// ErrPasswordRequired indicates an empty password on login or registration.
	ErrPasswordRequired = 1102

	// ErrEmailInvalid indicates a missing or malformed email on registration.
	ErrEmailInvalid = 1103

	// ErrTitleRequired indicates a trade without a title.
	ErrTitleRequired = 1201

	// ErrOfferingRequired indicates a trade with no offered items.
	ErrOfferingRequired = 1202

	// ErrSeekingRequired indicates a trade with no sought items.
	ErrSeekingRequired = 1203

	// ErrItemKindInvalid indicates an item kind outside plant, pet and coins.
	ErrItemKindInvalid = 1204

	// ErrItemNameRequired indicates an item without a name.
	ErrItemNameRequired = 1205

	// ErrItemQuantityInvalid indicates an item quantity that is not positive.
	ErrItemQuantityInvalid = 1206

	// ErrItemListInvalid indicates an unknown item list (neither offering nor seeking).
	ErrItemListInvalid = 1207

	// ErrFormNotSubmittable indicates a submit attempt before the form is complete.
	ErrFormNotSubmittable = 1208

	// ErrMessageEmpty indicates a chat message that is blank after trimming.
	ErrMessageEmpty = 1301

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 1302

	// ErrNoOpenConversation indicates a chat operation while no conversation is open.
	ErrNoOpenConversation = 1303

	// ErrPushOnlyChannel indicates a data frame sent on the push-only WebSocket.
	ErrPushOnlyChannel = 1304

	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 1401

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid.
	ErrPowChallengeInvalid = 1402

	// ErrFileTypeInvalid indicates an avatar upload with an unsupported type or size.
	ErrFileTypeInvalid = 1501
)

// 2xxx: Request Lifecycle Errors
const (
	// ErrRequestSuperseded indicates a load that was overtaken by a newer request
	// for the same resource; its result was discarded.
	ErrRequestSuperseded = 2001
)

// 3xxx: Authentication Errors
const (
	// ErrInvalidCredentials indicates the user store rejected the username and password.
	ErrInvalidCredentials = 3001

	// ErrUserAlreadyExists indicates a registration for a username that is taken.
	ErrUserAlreadyExists = 3002

	// ErrUnauthorized indicates the request requires a signed-in session.
	ErrUnauthorized = 3003

	// ErrNotTradeOwner indicates a trade mutation by someone other than its owner.
	ErrNotTradeOwner = 3004

	// ErrSessionKicked indicates that the push connection was replaced by a newer one.
	ErrSessionKicked = 3005
)

// 4xxx: Not Found Errors
const (
	// ErrTradeNotFound indicates an unknown trade id.
	ErrTradeNotFound = 4001

	// ErrConversationNotFound indicates an unknown conversation.
	ErrConversationNotFound = 4002

	// ErrUserNotFound indicates an unknown user.
	ErrUserNotFound = 4003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrBackendUnavailable indicates a collaborator failed after retries were exhausted.
	ErrBackendUnavailable = 5001

	// ErrFileStorageFailed indicates the object storage rejected a request.
	ErrFileStorageFailed = 5002
)
