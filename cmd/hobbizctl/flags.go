package main

// Flag names, shared between cobra and viper lookups.
const (
	apiFlag      = "api"
	tokenFlag    = "token"
	meFlag       = "me"
	logLevelFlag = "logLevel"
	logFlag      = "log"

	toFlag           = "to"
	announcementFlag = "announcement"
	textFlag         = "text"
	fileFlag         = "file"

	intervalFlag  = "interval"
	favoritesFlag = "favorites"

	credentialsFlag = "credentials"
	pushTokenFlag   = "device"
	topicFlag       = "topic"
	titleFlag       = "title"
	bodyFlag        = "body"
	dataFlag        = "data"
)
