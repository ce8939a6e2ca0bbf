package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kansha-app/kansha/model"
)

const statsTopN = 10

// userStat is one user's ledger-derived activity for the current month.
type userStat struct {
	Id             string  `json:"id"`
	Name           string  `json:"name"`
	Department     string  `json:"department"`
	SentPoints     float64 `json:"sentPoints"`
	ReceivedPoints float64 `json:"receivedPoints"`
	PostCount      int     `json:"postCount"`
	Rank           int     `json:"rank"`
}

type departmentStat struct {
	Department  string  `json:"department"`
	TotalPoints float64 `json:"totalPoints"`
	MemberCount int     `json:"memberCount"`
	Rank        int     `json:"rank"`
}

// MonthlyStats aggregates the current month's rankings straight from the
// transaction log, no denormalized counters involved.
func (s *Server) MonthlyStats(c *gin.Context) {
	userId := callerId(c)
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var stats []userStat
	err := s.DB.Raw(`
		SELECT u.id, u.name, u.department,
			COALESCE(SUM(CASE WHEN pt.type IN ('POST_SEND', 'LIKE_SEND') THEN -pt.amount ELSE 0 END), 0) AS sent_points,
			COALESCE(SUM(CASE WHEN pt.type IN ('POST_RECEIVE', 'LIKE_RECEIVE') THEN pt.amount ELSE 0 END), 0) AS received_points
		FROM point_transactions pt
		JOIN users u ON u.id = pt.user_id
		WHERE pt.created_at >= ?
		GROUP BY u.id, u.name, u.department`, monthStart).
		Scan(&stats).Error
	if err != nil {
		writeError(c, err)
		return
	}

	type postCountRow struct {
		AuthorID string
		Count    int
	}
	var postCounts []postCountRow
	err = s.DB.Model(&model.Post{}).
		Select("author_id, count(*) as count").
		Where("created_at >= ?", monthStart).
		Group("author_id").
		Scan(&postCounts).Error
	if err != nil {
		writeError(c, err)
		return
	}
	countByAuthor := map[string]int{}
	for _, row := range postCounts {
		countByAuthor[row.AuthorID] = row.Count
	}
	for i := range stats {
		stats[i].PostCount = countByAuthor[stats[i].Id]
	}

	received := rankBy(stats, func(a, b *userStat) bool { return a.ReceivedPoints > b.ReceivedPoints })
	sent := rankBy(stats, func(a, b *userStat) bool { return a.SentPoints > b.SentPoints })
	posts := rankBy(stats, func(a, b *userStat) bool { return a.PostCount > b.PostCount })

	c.JSON(http.StatusOK, gin.H{
		"userRanking": gin.H{
			"receivedPoints": rankOf(received, userId),
			"sentPoints":     rankOf(sent, userId),
			"postCount":      rankOf(posts, userId),
		},
		"departmentRanking": departmentRanking(stats),
		"topUsers": gin.H{
			"receivedPoints": top(received, statsTopN),
			"sentPoints":     top(sent, statsTopN),
			"postCount":      top(posts, statsTopN),
		},
	})
}

// rankBy returns a ranked copy of stats ordered by less.
func rankBy(stats []userStat, less func(a, b *userStat) bool) []userStat {
	ranked := make([]userStat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool { return less(&ranked[i], &ranked[j]) })
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// rankOf returns the user's rank in the ranked slice, nil when absent.
func rankOf(ranked []userStat, userId string) interface{} {
	for i := range ranked {
		if ranked[i].Id == userId {
			return ranked[i].Rank
		}
	}
	return nil
}

func top(ranked []userStat, n int) []userStat {
	if len(ranked) < n {
		n = len(ranked)
	}
	return ranked[:n]
}

// departmentRanking sums received points per department.
func departmentRanking(stats []userStat) []departmentStat {
	byDepartment := map[string]*departmentStat{}
	for i := range stats {
		if stats[i].Department == "" {
			continue
		}
		entry, ok := byDepartment[stats[i].Department]
		if !ok {
			entry = &departmentStat{Department: stats[i].Department}
			byDepartment[stats[i].Department] = entry
		}
		entry.TotalPoints += stats[i].ReceivedPoints
		entry.MemberCount++
	}

	ranking := make([]departmentStat, 0, len(byDepartment))
	for _, entry := range byDepartment {
		ranking = append(ranking, *entry)
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].TotalPoints > ranking[j].TotalPoints })
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	if len(ranking) > statsTopN {
		ranking = ranking[:statsTopN]
	}
	return ranking
}
