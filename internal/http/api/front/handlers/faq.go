package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// faqEntry is one question and answer pair.
type faqEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var faqEntries = []faqEntry{
	{
		Question: "How does a temporary number work?",
		Answer:   "You pick a service and a country, pay from your balance and receive a dedicated number. Any verification SMS sent to it shows up in your dashboard within seconds.",
	},
	{
		Question: "How long is a number reserved?",
		Answer:   "Each number is reserved for 10 minutes. If no SMS arrives in that window the reservation expires automatically.",
	},
	{
		Question: "What happens if no code arrives?",
		Answer:   "Cancel the activation while it is still waiting and the reservation is released. Expired activations release on their own.",
	},
	{
		Question: "Can a number be reused?",
		Answer:   "No. Every activation allocates a fresh number for a single verification.",
	},
	{
		Question: "How do I add funds?",
		Answer:   "Open the balance page and choose a payment method. Crypto payments are credited with a 20% bonus.",
	},
}

// GetFAQ returns the frequently asked questions.
func GetFAQ(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"faq": faqEntries})
}
