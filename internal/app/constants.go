package app

const (
	Name           = "trackdeck"
	SourceURL      = "https://github.com/GeorgeBarlow/streamdeck-trackaudio"
	ConfigFilename = "config.json"
	LogFilename    = "app.log"
)
