package connectors

const (
	TopicConnStatus    = "conn.status"
	TopicEngineMessage = "engine.message"
	TopicStationState  = "station.state"
	TopicVoiceActivity = "voice.activity"
	TopicAtisLetter    = "atis.letter"
	TopicRawFrameIn    = "raw.frame.in"
	TopicRawFrameOut   = "raw.frame.out"
)
