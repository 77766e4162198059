package domain

import "time"

// LinkedEntityType enumerates the business records a thread or message can
// be annotated with.
type LinkedEntityType string

const (
	LinkedEntityProject  LinkedEntityType = "project"
	LinkedEntityJob      LinkedEntityType = "job"
	LinkedEntityCustomer LinkedEntityType = "customer"
)

// LinkedEntity is a many-to-many annotation between an email thread or
// message and a business record. Distinct from the single-valued primary
// link fields on EmailThread.
type LinkedEntity struct {
	ID             string           `json:"id" gorm:"primaryKey"`
	EntityType     LinkedEntityType `json:"entity_type" gorm:"index;not null"`
	EntityID       string           `json:"entity_id" gorm:"index;not null"`
	EntityName     string           `json:"entity_name"`
	EmailThreadID  string           `json:"email_thread_id,omitempty" gorm:"index"`
	EmailMessageID string           `json:"email_message_id,omitempty" gorm:"index"`
	CreatedBy      string           `json:"created_by"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (LinkedEntity) TableName() string {
	return "linked_entities"
}
