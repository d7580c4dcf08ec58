package service

import "time"

const (
	// Replies shown to the invoking user.
	MsgMissingOption   = "Missing required option: %s"
	MsgInvalidDuration = "Invalid duration"
	MsgDurationTooLong = "Duration is too long"
	MsgInvalidWinners  = "Winners must be at least 1"
	MsgNotFound        = "Giveaway not found"
	MsgEntered         = "You have entered the giveaway!"
	MsgLeft            = "You have left this giveaway"
	MsgNoParticipants  = "No one is participating yet"
	MsgCreated         = "Giveaway created at <#%s>!"
	MsgCreateFailed    = "Failed to create the giveaway, please try again later"
	MsgHello           = "Hello `%s`!"

	// Announcement embed.
	TitleNew      = "New giveaway!"
	TitleEnded    = "Giveaway ended!"
	FieldHost     = "Hosted by"
	FieldEnds     = "Ends"
	FieldEnded    = "Ended"
	FieldWinners  = "Winners"
	FieldMessage  = "Message"
	NoWinners     = "`No winners`"
	NeutralColor  = 0x36393E
	InfoLabelText = "info"

	// Component labels, the custom_id prefix before the first underscore.
	LabelAction = "action"
	LabelInfo   = "info"

	DefaultWinners = 1
)

const (
	DefaultMaxDuration  = 30 * 24 * time.Hour
	DefaultClaimTTL     = 2 * time.Minute
	DefaultTaskTimeout  = DefaultClaimTTL - ClaimSafetyMargin
	ClaimSafetyMargin   = 5 * time.Second
	DefaultPollInterval = time.Second
	DefaultMaxAttempts  = 5
	DefaultBatchSize    = 20
	DefaultConcurrency  = 10
)
