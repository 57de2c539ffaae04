package services

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/penurwill/agent_network/models"
	"gorm.io/gorm"
)

// The audit sink writes ActivityLog rows inside the caller's transaction so
// the audit entry commits or rolls back together with the business write.

const (
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

func snapshot(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("🔥 Failed to snapshot %T for activity log: %v", v, err)
		return nil
	}
	return data
}

func writeActivity(tx *gorm.DB, entry *models.ActivityLog) error {
	return tx.Create(entry).Error
}

// LogCreate records the creation of a target row.
func LogCreate(tx *gorm.DB, actorID *uuid.UUID, targetType string, targetID uuid.UUID, after interface{}) error {
	actorType := ActorTypeSystem
	if actorID != nil {
		actorType = ActorTypeUser
	}
	return writeActivity(tx, &models.ActivityLog{
		UserID:     actorID,
		ActorType:  actorType,
		Action:     "create",
		TargetType: targetType,
		TargetID:   targetID,
		AfterData:  snapshot(after),
	})
}

// LogUpdate records a before/after diff for a target row.
func LogUpdate(tx *gorm.DB, actorID *uuid.UUID, targetType string, targetID uuid.UUID, before, after interface{}) error {
	actorType := ActorTypeSystem
	if actorID != nil {
		actorType = ActorTypeUser
	}
	return writeActivity(tx, &models.ActivityLog{
		UserID:     actorID,
		ActorType:  actorType,
		Action:     "update",
		TargetType: targetType,
		TargetID:   targetID,
		BeforeData: snapshot(before),
		AfterData:  snapshot(after),
	})
}
