package events

const (
	// TopicReviewCreated carries ReviewCreated payloads from the intake path.
	TopicReviewCreated = "reviews.created"
	// TopicReviewVerdict carries the terminal or transient outcome of a verification.
	TopicReviewVerdict = "reviews.verdict"
	// TopicChatMessage carries messages posted to a chat channel.
	TopicChatMessage = "chat.messages"
)
