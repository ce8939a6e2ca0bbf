package ledger

import (
	"os"
	"testing"

	"github.com/kansha-app/kansha/model"
	"github.com/kansha-app/kansha/utils"
	"github.com/kansha-app/kansha/utils/dotenv"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func ledgerEntries(t *testing.T, db *gorm.DB) []model.PointTransaction {
	t.Helper()
	var entries []model.PointTransaction
	require.NoError(t, db.Order("created_at").Find(&entries).Error)
	return entries
}

func TestApplyMovesPointsAndAppendsEntries(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	sender := utils.CreateTestUser(t, db, "sender", 400)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)

	err := Apply(db, []Delta{
		{UserID: sender.Id, Amount: -100, Type: model.TransactionTypePostSend},
		{UserID: recipient.Id, Amount: 100, Type: model.TransactionTypePostReceive},
	})
	require.NoError(t, err)

	require.Equal(t, 300.0, utils.BalanceOf(t, db, sender.Id))
	require.Equal(t, 100.0, utils.BalanceOf(t, db, recipient.Id))

	entries := ledgerEntries(t, db)
	require.Len(t, entries, 2)
	sum := 0.0
	for _, entry := range entries {
		sum += entry.Amount
	}
	require.Zero(t, sum)
}

func TestApplyRejectsUnbalancedDeltas(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	sender := utils.CreateTestUser(t, db, "sender", 400)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)

	err := Apply(db, []Delta{
		{UserID: sender.Id, Amount: -100, Type: model.TransactionTypePostSend},
		{UserID: recipient.Id, Amount: 90, Type: model.TransactionTypePostReceive},
	})
	require.ErrorIs(t, err, ErrInvalidDeltaSet)

	// Detected before any mutation.
	require.Equal(t, 400.0, utils.BalanceOf(t, db, sender.Id))
	require.Empty(t, ledgerEntries(t, db))
}

func TestApplyRejectsEmptyDeltaSet(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	err := Apply(db, nil)
	require.ErrorIs(t, err, ErrInvalidDeltaSet)
}

func TestApplyInsufficientBalanceLeavesNothingBehind(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	sender := utils.CreateTestUser(t, db, "sender", 30)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)

	err := Apply(db, []Delta{
		{UserID: sender.Id, Amount: -50, Type: model.TransactionTypePostSend},
		{UserID: recipient.Id, Amount: 50, Type: model.TransactionTypePostReceive},
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	require.Equal(t, 30.0, utils.BalanceOf(t, db, sender.Id))
	require.Equal(t, 0.0, utils.BalanceOf(t, db, recipient.Id))
	require.Empty(t, ledgerEntries(t, db))
}

func TestApplyUnknownUserRollsBackEarlierLegs(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	sender := utils.CreateTestUser(t, db, "sender", 400)

	// The second leg fails, the already-applied first leg must not survive.
	err := Apply(db, []Delta{
		{UserID: sender.Id, Amount: -100, Type: model.TransactionTypePostSend},
		{UserID: "no-such-user", Amount: 100, Type: model.TransactionTypePostReceive},
	})
	require.ErrorIs(t, err, ErrUserNotFound)

	require.Equal(t, 400.0, utils.BalanceOf(t, db, sender.Id))
	require.Empty(t, ledgerEntries(t, db))
}

func TestApplyFractionalShares(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	endorser := utils.CreateTestUser(t, db, "endorser", 10)
	author := utils.CreateTestUser(t, db, "author", 0)
	recipient := utils.CreateTestUser(t, db, "recipient", 0)

	err := Apply(db, []Delta{
		{UserID: endorser.Id, Amount: -1, Type: model.TransactionTypeLikeSend},
		{UserID: author.Id, Amount: 0.5, Type: model.TransactionTypeLikeReceive},
		{UserID: recipient.Id, Amount: 0.5, Type: model.TransactionTypeLikeReceive},
	})
	require.NoError(t, err)

	require.Equal(t, 9.0, utils.BalanceOf(t, db, endorser.Id))
	require.Equal(t, 0.5, utils.BalanceOf(t, db, author.Id))
	require.Equal(t, 0.5, utils.BalanceOf(t, db, recipient.Id))
	require.Len(t, ledgerEntries(t, db), 3)
}

func TestIsAllowedPoints(t *testing.T) {
	for _, points := range AllowedPoints {
		require.True(t, IsAllowedPoints(points))
	}
	require.False(t, IsAllowedPoints(0))
	require.False(t, IsAllowedPoints(75))
	require.False(t, IsAllowedPoints(-100))
}
