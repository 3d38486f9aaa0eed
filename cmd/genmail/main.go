// Genmail emits a synthetic support-email dataset with ground-truth
// labels, for exercising the triage pipeline and the model sidecar.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"
)

var senders = []string{
	"angry.user@gmail.com", "happy.client@corp.com", "confused.dev@startup.io",
	"hr@internal.com", "billing@finance.net", "support@vendor.com",
}

var subjects = map[string][]string{
	"refund":  {"Where is my refund?", "Chargeback initiated", "Refund status #9921", "Money not received"},
	"login":   {"Cannot login", "Password reset loop", "2FA not working", "Account locked"},
	"feature": {"Feature request", "Can you add dark mode?", "Integration with Slack", "API access"},
	"policy":  {"Urgent: Policy Update", "Compliance Review", "Terms of Service Change"},
	"praise":  {"Great service!", "Thank you", "Kudos to the team", "Solved my issue"},
}

type email struct {
	ID         int       `json:"id"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
	Expected   expected  `json:"expected_analysis"`
}

type expected struct {
	Sentiment string `json:"sentiment"`
	Urgency   string `json:"urgency"`
	Category  string `json:"category"`
}

func main() {
	count := flag.Int("count", 50, "number of emails to generate")
	out := flag.String("out", "sample_dataset.json", "output file path")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // G404: test fixtures, not crypto

	dataset := make([]email, 0, *count)
	for i := 0; i < *count; i++ {
		dataset = append(dataset, generate(rng, i+1))
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal dataset:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil { //nolint:gosec // G306: fixture file, not sensitive
		fmt.Fprintln(os.Stderr, "write dataset:", err)
		os.Exit(1)
	}

	fmt.Printf("generated %d emails in %q (seed %d)\n", *count, *out, *seed)
}

func generate(rng *rand.Rand, id int) email {
	categories := make([]string, 0, len(subjects))
	for c := range subjects {
		categories = append(categories, c)
	}
	// sorted so a fixed seed yields a stable dataset
	sort.Strings(categories)
	category := categories[rng.Intn(len(categories))]

	sentiment := "neutral"
	switch category {
	case "praise":
		sentiment = "positive"
	case "refund":
		sentiment = "angry"
	}
	urgency := "medium"
	if category == "refund" || category == "policy" {
		urgency = "high"
	}

	return email{
		ID:         id,
		Sender:     senders[rng.Intn(len(senders))],
		Subject:    subjects[category][rng.Intn(len(subjects[category]))],
		Body:       body(rng, category),
		ReceivedAt: time.Now().Add(-time.Duration(1+rng.Intn(1000)) * time.Minute),
		Expected: expected{
			Sentiment: sentiment,
			Urgency:   urgency,
			Category:  category,
		},
	}
}

func body(rng *rand.Rand, category string) string {
	switch category {
	case "refund":
		return fmt.Sprintf(
			"I have been waiting for %d days. This is unacceptable. My order #%d was cancelled but no money back. I will report this.",
			2+rng.Intn(29), 1000+rng.Intn(9000),
		)
	case "login":
		return "I am trying to login to my account but it keeps redirecting me to the home page. I tried on Chrome and Safari. Please help."
	case "feature":
		return "Hi team, I love the product but I really need SSO Login. When will this be available?"
	case "policy":
		return "Please review the attached document regarding the new Data Privacy guidelines effective immediately."
	case "praise":
		return fmt.Sprintf(
			"Just wanted to say thanks to the support agent who helped me with ticket #%d. They were fast and polite.",
			10000+rng.Intn(90000),
		)
	default:
		return ""
	}
}
