package generation

import "fmt"

const (
	topicSystemPrompt = "You are a chatbot that generates the main topic of a presentation."
	topicUserPrompt   = "Provide a topic of the presentation based on the content:%s,up to 3 words."

	blockSystemPrompt = "You are a chatbot that generates expanded explanations about slide of presentation."
	blockUserPrompt   = "Provide an explanation of the slide based on the content:%s, " +
		"within the context of the main topic:%s if applicable, in up to 3 sentences."
)

func topicPrompts(fullText string) (system, user string) {
	return topicSystemPrompt, fmt.Sprintf(topicUserPrompt, fullText)
}

func blockPrompts(blockText, topic string) (system, user string) {
	return blockSystemPrompt, fmt.Sprintf(blockUserPrompt, blockText, topic)
}
