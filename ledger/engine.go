package ledger

import (
	"math"

	"github.com/google/uuid"
	"github.com/kansha-app/kansha/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Endorsement shares are halves, which are exact in a float64, but keep a
// small epsilon so the conservation check never trips on accumulated sums.
const conservationEpsilon = 1e-9

/*

Delta is one leg of a transfer

UserID: whose balance to move
Amount: signed points, negative legs spend, positive legs receive
Type: the ledger entry kind recorded for this leg
PostID: the related post if any

A transfer is a non-empty list of deltas whose amounts sum to zero.

*/

type Delta struct {
	UserID string
	Amount float64
	Type   model.TransactionType
	PostID *string
}

// Apply executes the delta set in its own database transaction. Either every
// balance update and every ledger row lands, or none do.
func Apply(db *gorm.DB, deltas []Delta) error {
	if err := validateDeltas(deltas); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return applyValidated(tx, deltas)
	})
}

// ApplyTx executes the delta set inside the caller's transaction, for
// operations that need the transfer and their own writes (post row, good
// count) in one atomic unit. The caller owns commit and rollback.
func ApplyTx(tx *gorm.DB, deltas []Delta) error {
	if err := validateDeltas(deltas); err != nil {
		return err
	}
	return applyValidated(tx, deltas)
}

// validateDeltas rejects unbalanced sets before anything is written.
func validateDeltas(deltas []Delta) error {
	if len(deltas) == 0 {
		return errors.Wrap(ErrInvalidDeltaSet, "empty delta set")
	}
	sum := 0.0
	for _, d := range deltas {
		sum += d.Amount
	}
	if math.Abs(sum) > conservationEpsilon {
		return errors.Wrapf(ErrInvalidDeltaSet, "deltas sum to %v", sum)
	}
	return nil
}

func applyValidated(tx *gorm.DB, deltas []Delta) error {
	for _, d := range deltas {
		if err := adjustBalance(tx, d); err != nil {
			return err
		}
		entry := model.PointTransaction{
			Id:     uuid.New().String(),
			UserID: d.UserID,
			PostID: d.PostID,
			Amount: d.Amount,
			Type:   d.Type,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return errors.Wrap(err, "append point transaction")
		}
	}
	return nil
}

// enforcesFloor reports whether a negative delta of this type must not push
// the balance below zero. Send legs are floored, endorsement receive shares
// and reset entries are not.
func enforcesFloor(t model.TransactionType) bool {
	return t == model.TransactionTypePostSend || t == model.TransactionTypeLikeSend
}

// adjustBalance moves one balance by a relative increment. The update is
// guarded in SQL rather than read-modify-write so concurrent transfers on
// the same user serialize on the row instead of losing updates.
func adjustBalance(tx *gorm.DB, d Delta) error {
	query := tx.Model(&model.User{}).Where("id = ?", d.UserID)
	if d.Amount < 0 && enforcesFloor(d.Type) {
		query = query.Where("points_balance >= ?", -d.Amount)
	}
	res := query.UpdateColumn("points_balance", gorm.Expr("points_balance + ?", d.Amount))
	if res.Error != nil {
		return errors.Wrap(res.Error, "adjust balance")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// The guarded update matched no row: either the user is missing or the
	// floor check failed. Probe to tell the two apart.
	var count int64
	if err := tx.Model(&model.User{}).Where("id = ?", d.UserID).Count(&count).Error; err != nil {
		return errors.Wrap(err, "probe user existence")
	}
	if count == 0 {
		return errors.Wrapf(ErrUserNotFound, "user %s", d.UserID)
	}
	return errors.Wrapf(ErrInsufficientBalance, "user %s cannot cover %v points", d.UserID, -d.Amount)
}
