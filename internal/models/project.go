package models

import "time"

type Activity struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	User      User      `json:"user"`
}

type FileMetadata struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size string `json:"size"`
	URL  string `json:"url"`
}

// Project is the aggregate root: tasks, activities and files live inside it
// and are always written together with it.
type Project struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Owner                User           `json:"owner"`
	Deadline             time.Time      `json:"deadline"`
	ProgressNotes        string         `json:"progressNotes"`
	CompletionPercentage int            `json:"completionPercentage"`
	Tasks                []Task         `json:"tasks"`
	Activities           []Activity     `json:"activities"`
	Files                []FileMetadata `json:"files"`
	Version              int64          `json:"version"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// TaskIndex returns the position of the task with the given id, or -1.
func (p *Project) TaskIndex(id string) int {
	for i, t := range p.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// StatusCounts counts the project's tasks per status; every status is present.
func (p *Project) StatusCounts() map[TaskStatus]int {
	counts := make(map[TaskStatus]int, len(TaskStatuses))
	for _, s := range TaskStatuses {
		counts[s] = 0
	}
	for _, t := range p.Tasks {
		counts[t.Status]++
	}
	return counts
}
