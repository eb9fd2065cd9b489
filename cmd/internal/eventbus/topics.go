package eventbus

// 전역 토픽 선언. config 의 events.topic 이 기본값을 덮어쓸 수 있다.
var (
	TopicMessageEvents = NewTopic("chat-viewer.message.events")
)
