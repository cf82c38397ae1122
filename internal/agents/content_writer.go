package agents

import (
	"fmt"

	m "github.com/nieveai/content-crew/internal/models"
)

const (
	ContentWriterRole = "Content Writer"

	contentWriterGoal = "Transform research findings into engaging blog posts while maintaining accuracy"

	contentWriterBackstory = "You're a skilled content writer specialized in " +
		"engaging, accessible content from technical research. " +
		"You work closely with the Senior Research Analyst and excel at maintaining the perfect " +
		"balance between informative and entertaining writing " +
		"while ensuring all facts and citations from the research " +
		"are properly incorporated. You have a talent for making " +
		"complex topics approachable without oversimplifying them."

	writingTaskTemplate = `Using the research brief provided, create an engaging blog post about %s that:
1. Transforms technical information into accessible, audience-friendly content.
2. Maintains factual accuracy and integrates all citations directly from the research brief.
3. Includes:
    - An attention-grabbing introduction tailored to the audience.
    - Well-structured body sections with clear and descriptive headings.
    - A compelling conclusion that leaves a lasting impression.
4. Preserves all source citations in [Source: URL] format.
5. Concludes with a complete References section listing all sources.`

	writingExpectedOutput = `A polished blog post in markdown format that:
    - Engages readers while maintaining accuracy
    - Contains properly structured sections
    - Includes inline citations hyperlinked to the original source URL
    - Presents information in an accessible yet informative way
    - Follows proper markdown formatting (use H1 for the title and H3 for the sub-sections)`

	WritingTaskName = "writing"
)

func NewContentWriter(model *m.Model) *m.Agent {
	return &m.Agent{
		Role:            ContentWriterRole,
		Goal:            contentWriterGoal,
		Backstory:       contentWriterBackstory,
		Model:           model,
		AllowDelegation: false,
		Verbose:         true,
	}
}

// NewWritingTask builds the blog post task. Its context is the research
// task, so it only runs once the research brief exists.
func NewWritingTask(topic string, writer *m.Agent, research *m.Task) *m.Task {
	return &m.Task{
		Name:           WritingTaskName,
		Description:    fmt.Sprintf(writingTaskTemplate, topic),
		ExpectedOutput: writingExpectedOutput,
		Agent:          writer,
		Context:        []*m.Task{research},
	}
}
