package aggregator

// stopwords is the domain-specific filter for the word-frequency count. It
// mixes ordinary function words with contact-center boilerplate and a few
// transcription artifacts seen in real data.
var stopwords = map[string]bool{}

func init() {
	for _, w := range []string{
		"this", "that", "what", "with", "have", "your", "from", "there", "would", "could", "about", "which",
		"just", "like", "it's", "yeah", "don't", "going", "gonna", "you're", "thank", "then", "know", "because",
		"they", "well", "need", "give", "take", "back", "right", "name", "alright", "when", "want", "here",
		"make", "let's", "will", "okay", "actually", "sorry", "able", "sure", "were", "been", "does", "doing",
		"should", "can't", "didn't", "isn't", "that's", "i'll", "we'll", "wasn't", "they're",
		"where", "their", "them", "these", "those", "some", "myself", "yourself", "himself", "herself",
		"please", "account", "information", "customer", "service", "contact", "number", "email", "phone",
		"call", "calling", "assistance", "help", "good", "time", "more", "only", "send", "still", "text", "data", "said", "today",
		"what's", "we're", "boost", "card", "digit", "you", "yes", "bye", "choosing",
		"payment", "i've", "sir", "maam", "hello",
	} {
		stopwords[w] = true
	}
}
