package seed

import (
	"fmt"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/scoring"
)

var standardBands = []scoring.Band{
	{Label: "Low", Min: 1, Max: 2.5, Color: "#ef4444"},
	{Label: "Medium", Min: 2.5, Max: 3.7, Color: "#f59e0b"},
	{Label: "High", Min: 3.7, Max: 5, Color: "#10b981"},
}

type catalogEntry struct {
	code        string
	name        string
	description string
	items       []string
}

var officialCatalog = []catalogEntry{
	{
		code:        "LEADERSHIP01",
		name:        "Leadership",
		description: "Core leadership competencies",
		items: []string{
			"Encourages the team", "Makes decisions", "Strategic vision", "Communicates clearly", "Delegates effectively",
			"Develops talent", "Handles conflict", "Adapts to change", "Emotional intelligence", "Takes responsibility",
		},
	},
	{
		code:        "COMMUNICATION01",
		name:        "Communication",
		description: "Effectiveness of communication skills",
		items: []string{
			"Expresses ideas clearly", "Listens actively", "Gives constructive feedback", "Presents to groups", "Negotiates",
			"Non-verbal communication", "Adapts to the audience", "Writes well", "Mediates discussions", "Shows empathy",
		},
	},
	{
		code:        "TEAMWORK01",
		name:        "Teamwork",
		description: "Ability to work as part of a team",
		items: []string{
			"Collaborates", "Shows respect", "Cooperates", "Supports peers", "Shares knowledge",
			"Resolves conflict", "Commits to shared goals", "Stays flexible", "Celebrates wins", "Builds trust",
		},
	},
	{
		code:        "ADAPTABILITY01",
		name:        "Adaptability",
		description: "Ability to adapt to change",
		items: []string{
			"Resilience", "Openness to new ideas", "Manages stress", "Keeps learning", "Flexibility",
			"Takes initiative", "Proactive", "Creativity", "Looks ahead", "Takes calculated risks",
		},
	},
	{
		code:        "RESULTS01",
		name:        "Results Orientation",
		description: "Focus on results and goals",
		items: []string{
			"Focuses on goals", "Quality of work", "Efficiency", "Productivity", "Meets deadlines",
			"Pursues excellence", "Accountability", "Determination", "Autonomy", "Initiative",
		},
	},
	{
		code:        "DECISION01",
		name:        "Decision Making",
		description: "Ability to make effective decisions",
		items: []string{
			"Analyses information", "Logical reasoning", "Decides in time", "Weighs risks", "Relies on evidence",
			"Consults the right people", "Owns decisions", "Adapts to consequences", "Learns from mistakes", "Long-term view",
		},
	},
}

// OfficialTests returns the built-in questionnaires as create requests.
func OfficialTests() []models.CreateTestRequest {
	out := make([]models.CreateTestRequest, 0, len(officialCatalog))
	for _, entry := range officialCatalog {
		questions := make([]scoring.Question, len(entry.items))
		for i, text := range entry.items {
			questions[i] = scoring.Question{ID: fmt.Sprintf("q%d", i+1), Text: text, Order: i + 1}
		}
		description := entry.description
		category := entry.name
		bands := make([]scoring.Band, len(standardBands))
		copy(bands, standardBands)
		out = append(out, models.CreateTestRequest{
			Code:        entry.code,
			Name:        entry.name,
			Description: &description,
			Category:    &category,
			Questions:   questions,
			Bands:       bands,
		})
	}
	return out
}
