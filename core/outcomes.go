package core

import (
	"github.com/cpacia/bouncer/database"
	"github.com/cpacia/bouncer/models"
)

// defaultOutcomeLimit is used when a non-positive limit is requested.
const defaultOutcomeLimit = 50

// saveReceiveOutcome stores the outcome. Outcomes for polls which found
// nothing are not stored.
func (b *Bouncer) saveReceiveOutcome(outcome *models.ReceiveOutcome) {
	if !outcome.PendingSuccess && outcome.Err() == nil {
		return
	}
	err := b.db.Update(func(tx database.Tx) error {
		return tx.Save(outcome)
	})
	if err != nil {
		log.Errorf("Error saving receive outcome %s: %s", outcome.ID, err)
	}
}

func (b *Bouncer) saveSendOutcome(outcome *models.SendOutcome) {
	err := b.db.Update(func(tx database.Tx) error {
		return tx.Save(outcome)
	})
	if err != nil {
		log.Errorf("Error saving send outcome %s: %s", outcome.ID, err)
	}
}

// ReceiveOutcomes returns the most recent receive outcomes, newest first.
// If account is not empty only outcomes of that account are returned.
func (b *Bouncer) ReceiveOutcomes(account string, limit int) ([]models.ReceiveOutcome, error) {
	if limit <= 0 {
		limit = defaultOutcomeLimit
	}
	var outcomes []models.ReceiveOutcome
	err := b.db.View(func(tx database.Tx) error {
		db := tx.Read().Order("created_at desc").Limit(limit)
		if account != "" {
			db = db.Where("destination = ?", account)
		}
		return db.Find(&outcomes).Error
	})
	return outcomes, err
}

// SendOutcomes returns the most recent send outcomes, newest first. If
// account is not empty only outcomes with that source are returned.
func (b *Bouncer) SendOutcomes(account string, limit int) ([]models.SendOutcome, error) {
	if limit <= 0 {
		limit = defaultOutcomeLimit
	}
	var outcomes []models.SendOutcome
	err := b.db.View(func(tx database.Tx) error {
		db := tx.Read().Order("created_at desc").Limit(limit)
		if account != "" {
			db = db.Where("source = ?", account)
		}
		return db.Find(&outcomes).Error
	})
	return outcomes, err
}

// Notifications returns the most recent stored notifications, newest
// first. If account is not empty only notifications of that account are
// returned.
func (b *Bouncer) Notifications(account string, limit int) ([]models.NotificationRecord, error) {
	if limit <= 0 {
		limit = defaultOutcomeLimit
	}
	var records []models.NotificationRecord
	err := b.db.View(func(tx database.Tx) error {
		db := tx.Read().Order("timestamp desc").Limit(limit)
		if account != "" {
			db = db.Where("account = ?", account)
		}
		return db.Find(&records).Error
	})
	return records, err
}
