package confirm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/plancoach/internal/confirm"
	"github.com/slok/plancoach/internal/model"
)

func intPtr(i int) *int { return &i }

func TestBulletExtractorExtract(t *testing.T) {
	tests := map[string]struct {
		text    string
		expPlan *model.WeeklyPlan
		expOK   bool
	}{
		"Bold bullets with durations should be extracted.": {
			text: "Here is a plan for week 3:\n" +
				"- **Build an MCP server** (2 hrs) to practice tools\n" +
				"- **Read the protocol docs** - 30 min\n" +
				"* **Write notes**\n" +
				"- ok\n" +
				"Shall I add these to week 3?",
			expPlan: &model.WeeklyPlan{
				Week:             3,
				Tasks:            []string{"Build an MCP server (2 hrs)", "Read the protocol docs (30 min)", "Write notes"},
				EstimatedMinutes: intPtr(210),
			},
			expOK: true,
		},
		"Plain bullets next to bold ones should not be tasks.": {
			text: "Here is a plan for Week 3:\n" +
				"- **Build MCP server** (2 hrs)\n" +
				"- **Read docs** 30 min\n" +
				"- **Write tests**\n" +
				"- Total: 3.5 hours\n" +
				"- Keep the sessions short to stay focused\n" +
				"Shall I add these to Week 3?",
			expPlan: &model.WeeklyPlan{
				Week:             3,
				Tasks:            []string{"Build MCP server (2 hrs)", "Read docs (30 min)", "Write tests"},
				EstimatedMinutes: intPtr(210),
			},
			expOK: true,
		},
		"Label and duration only lines should not be tasks.": {
			text: "Week 4 ideas:\n" +
				"- Pair on the eval harness 45 min\n" +
				"- Estimated time: 45 min\n" +
				"- Total: 1 hour",
			expPlan: &model.WeeklyPlan{
				Week:             4,
				Tasks:            []string{"Pair on the eval harness 45 min"},
				EstimatedMinutes: intPtr(45),
			},
			expOK: true,
		},
		"Numbered bullets without week should have no week.": {
			text: "1. Watch the talk on agents\n2) Refactor the prompt 1.5 hours",
			expPlan: &model.WeeklyPlan{
				Tasks:            []string{"Watch the talk on agents", "Refactor the prompt 1.5 hours"},
				EstimatedMinutes: intPtr(150),
			},
			expOK: true,
		},
		"Confirmation question bullets should be ignored.": {
			text:  "- Shall I add these?\n- abc",
			expOK: false,
		},
		"Text without bullets should not have a plan.": {
			text:  "You are doing great, keep going.",
			expOK: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			gotPlan, gotOK := confirm.BulletExtractor{}.Extract(test.text)

			assert.Equal(t, test.expOK, gotOK)
			assert.Equal(t, test.expPlan, gotPlan)
		})
	}
}

func TestSplitDuration(t *testing.T) {
	tests := map[string]struct {
		text       string
		expText    string
		expMinutes int
		expOK      bool
	}{
		"Parenthesized hours.":       {text: "Read docs (1 hour)", expText: "Read docs", expMinutes: 60, expOK: true},
		"Dash separated minutes.":    {text: "Read docs - 45 mins", expText: "Read docs", expMinutes: 45, expOK: true},
		"Fractional hours.":          {text: "Build demo (1.5 hrs)", expText: "Build demo", expMinutes: 90, expOK: true},
		"No duration should be kept": {text: " Build demo ", expText: "Build demo"},
		"Inner duration is not a suffix.": {
			text:    "Do a 2 hours deep dive",
			expText: "Do a 2 hours deep dive",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			gotText, gotMinutes, gotOK := confirm.SplitDuration(test.text)

			assert.Equal(t, test.expText, gotText)
			assert.Equal(t, test.expMinutes, gotMinutes)
			assert.Equal(t, test.expOK, gotOK)
		})
	}
}
