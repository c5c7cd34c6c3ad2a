package dto

import "time"

// --- Ingestion DTOs ---

// AnnouncementCrawledMessage is the payload published when a crawler
// picks up a new or updated announcement.
type AnnouncementCrawledMessage struct {
	AnnouncementId int64  `json:"announcement_id"`
	Title          string `json:"title"`
	Board          string `json:"board"`
	Author         string `json:"author"`
	URL            string `json:"url"`
	HTML           string `json:"html"`

	WrittenAt *time.Time `json:"written_at,omitempty"`

	TargetDepartments []string `json:"target_departments,omitempty"`
	TargetGrades      []int    `json:"target_grades,omitempty"`
	Tags              []string `json:"tags,omitempty"`

	ApplicationPeriodStart *time.Time `json:"application_period_start,omitempty"`
	ApplicationPeriodEnd   *time.Time `json:"application_period_end,omitempty"`
}
