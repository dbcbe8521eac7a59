package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrUsernameRequired: {Code: ErrUsernameRequired, Message: "Username is required."},
	ErrPasswordRequired: {Code: ErrPasswordRequired, Message: "Password is required."},
	ErrEmailInvalid:     {Code: ErrEmailInvalid, Message: "A valid email is required."},

	ErrTitleRequired:       {Code: ErrTitleRequired, Message: "Trade title is required."},
	ErrOfferingRequired:    {Code: ErrOfferingRequired, Message: "Add at least one item you offer."},
	ErrSeekingRequired:     {Code: ErrSeekingRequired, Message: "Add at least one item you want."},
	ErrItemKindInvalid:     {Code: ErrItemKindInvalid, Message: "Item type must be plant, pet or coins."},
	ErrItemNameRequired:    {Code: ErrItemNameRequired, Message: "Item name is required."},
	ErrItemQuantityInvalid: {Code: ErrItemQuantityInvalid, Message: "Item quantity must be at least 1."},
	ErrItemListInvalid:     {Code: ErrItemListInvalid, Message: "Unknown item list."},
	ErrFormNotSubmittable:  {Code: ErrFormNotSubmittable, Message: "The trade is not complete yet."},

	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message cannot be empty."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrNoOpenConversation:    {Code: ErrNoOpenConversation, Message: "No chat is open."},
	ErrPushOnlyChannel:       {Code: ErrPushOnlyChannel, Message: "Send messages through the chat API."},

	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Message: "Verification required. Please try again."},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Message: "Verification failed. Please try again."},
	ErrFileTypeInvalid:      {Code: ErrFileTypeInvalid, Message: "Unsupported image."},

	ErrRequestSuperseded: {Code: ErrRequestSuperseded, Message: "A newer request replaced this one."},

	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect username or password."},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Username is already taken."},
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrNotTradeOwner:      {Code: ErrNotTradeOwner, Message: "Only the owner can change this trade."},
	ErrSessionKicked:      {Code: ErrSessionKicked, Message: "You were signed in on another device."},

	ErrTradeNotFound:        {Code: ErrTradeNotFound, Message: "Trade not found."},
	ErrConversationNotFound: {Code: ErrConversationNotFound, Message: "Chat not found."},
	ErrUserNotFound:         {Code: ErrUserNotFound, Message: "Account not found."},

	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrBackendUnavailable: {Code: ErrBackendUnavailable, Message: "Service is temporarily unavailable. Please try again."},
	ErrFileStorageFailed:  {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again."},
}
