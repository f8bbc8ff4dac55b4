package model

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

// reloadedDetail 模拟从存储重载后的形态：JSONMap 解码数值为 json.Number
func reloadedDetail(t *testing.T, detail datatypes.JSONMap) datatypes.JSONMap {
	t.Helper()
	raw, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("marshal detail: %v", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var out datatypes.JSONMap
	if err := decoder.Decode(&out); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	return out
}

func TestQuizScoresSurviveReload(t *testing.T) {
	rec := &ModuleProgressRecord{}
	rec.RecordQuizScores(map[string]float64{"q1": 70, "q2": 85.5})

	rec.DetailedProgress = reloadedDetail(t, rec.DetailedProgress)

	scores := rec.QuizScores()
	assert.Equal(t, 70.0, scores["q1"])
	assert.Equal(t, 85.5, scores["q2"])
}

func TestQuizScoreKeepsMaxAfterReload(t *testing.T) {
	rec := &ModuleProgressRecord{}
	rec.RecordQuizScores(map[string]float64{"q1": 70})
	rec.DetailedProgress = reloadedDetail(t, rec.DetailedProgress)

	// 重载后再报一个更低的分，最高分不能被覆盖
	rec.RecordQuizScores(map[string]float64{"q1": 60})
	assert.Equal(t, 70.0, rec.QuizScores()["q1"])

	rec.RecordQuizScores(map[string]float64{"q1": 95})
	assert.Equal(t, 95.0, rec.QuizScores()["q1"])
}

func TestXPAccumulatesAcrossReloads(t *testing.T) {
	rec := &ModuleProgressRecord{}
	rec.AddXP(50)
	rec.DetailedProgress = reloadedDetail(t, rec.DetailedProgress)
	assert.Equal(t, 50, rec.XPEarned())

	rec.AddXP(30)
	assert.Equal(t, 80, rec.XPEarned())
}

func TestCompletedLessonsDedupeAfterReload(t *testing.T) {
	rec := &ModuleProgressRecord{}
	rec.AddCompletedLessons([]string{"l1", "l2"})
	rec.DetailedProgress = reloadedDetail(t, rec.DetailedProgress)

	rec.AddCompletedLessons([]string{"l2", "l3"})
	assert.ElementsMatch(t, []string{"l1", "l2", "l3"}, rec.CompletedLessons())
}
