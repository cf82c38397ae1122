package agents

import (
	"fmt"

	m "github.com/nieveai/content-crew/internal/models"
)

const (
	SeniorResearchAnalystRole = "Senior Research Analyst"

	researchAnalystGoalTemplate = "Research, analyze, and synthesize comprehensive information on %s from reliable web sources"

	researchAnalystBackstory = "You're an expert research analyst with advanced web research skills. " +
		"You excel at finding, analyzing, and synthesizing information from " +
		"across the internet using search tools. You're skilled at " +
		"distinguishing reliable sources from unreliable ones, " +
		"fact-checking, cross-referencing information, and " +
		"identifying key patterns and insights. You provide " +
		"well-organized research briefs with proper citations " +
		"and source verifications. Your analysis includes both " +
		"raw data and interpreted insights, making complex " +
		"information accessible and actionable."

	researchTaskTemplate = `1. Conduct comprehensive research on %s including:
    - Recent developments and news
    - Key industry trends and innovations
    - Expert opinions and insights
    - Statistical data and market insights
2. Evaluate source credibility and fact-check all information.
3. Organize findings into a structured research brief.
4. Include all relevant citations and sources.`

	researchExpectedOutput = `A detailed research report containing:
    - Executive summary of key findings
    - Comprehensive analysis of current trends and developments
    - List of verified facts and statistics
    - All citations and links to the original sources
    - Clear categorization of main themes and patterns
Please format with clear sections and bullet points for easy reference.`

	ResearchTaskName = "research"
)

// NewSeniorResearchAnalyst builds the agent that searches the web for topic.
func NewSeniorResearchAnalyst(topic string, model *m.Model, tools ...m.Tool) *m.Agent {
	return &m.Agent{
		Role:            SeniorResearchAnalystRole,
		Goal:            fmt.Sprintf(researchAnalystGoalTemplate, topic),
		Backstory:       researchAnalystBackstory,
		Model:           model,
		Tools:           tools,
		AllowDelegation: false,
		Verbose:         true,
	}
}

// NewResearchTask builds the research brief task for topic. The analyst's
// tools are queried with the topic itself.
func NewResearchTask(topic string, analyst *m.Agent) *m.Task {
	return &m.Task{
		Name:           ResearchTaskName,
		Description:    fmt.Sprintf(researchTaskTemplate, topic),
		ExpectedOutput: researchExpectedOutput,
		Agent:          analyst,
		ToolInput:      topic,
	}
}
