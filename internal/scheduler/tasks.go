package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskCycleReport = "revenue.cycle.report"

type CycleReportPayload struct {
	Recipient        string    `json:"recipient"`
	CycleNumber      uint64    `json:"cycleNumber"`
	Trigger          string    `json:"trigger"`
	StartedAt        time.Time `json:"startedAt"`
	EndedAt          time.Time `json:"endedAt"`
	Leads            int       `json:"leads"`
	EmailsSent       int       `json:"emailsSent"`
	SMSSent          int       `json:"smsSent"`
	CallsMade        int       `json:"callsMade"`
	DealsClosed      int       `json:"dealsClosed"`
	RevenueThisCycle int64     `json:"revenueThisCycle"`
	TotalRevenue     int64     `json:"totalRevenue"`
	StageErrors      []string  `json:"stageErrors,omitempty"`
}

func NewCycleReportTask(payload CycleReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCycleReport, data), nil
}

func ParseCycleReportPayload(task *asynq.Task) (CycleReportPayload, error) {
	var payload CycleReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CycleReportPayload{}, err
	}
	return payload, nil
}
