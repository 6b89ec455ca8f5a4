package replay

import (
	"bytes"
	"fmt"

	"github.com/0xPolygon/evm-tracecheck/command/helper"
	"github.com/0xPolygon/evm-tracecheck/trace"
)

type ReplayResult struct {
	Chain      string `json:"chain"`
	Block      uint64 `json:"block"`
	Events     int    `json:"events"`
	Messages   int    `json:"messages"`
	Steps      int    `json:"steps"`
	Results    int    `json:"results"`
	WellNested bool   `json:"wellNested"`
}

func NewReplayResult(chain string, block uint64, t *trace.Trace) (*ReplayResult, error) {
	messages, steps, results, err := trace.Partition(t)
	if err != nil {
		return nil, err
	}

	return &ReplayResult{
		Chain:      chain,
		Block:      block,
		Events:     t.Len(),
		Messages:   len(messages),
		Steps:      len(steps),
		Results:    len(results),
		WellNested: trace.CheckWellNested(t) == nil,
	}, nil
}

func (r *ReplayResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[REPLAY TRACE]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Chain|%s", r.Chain),
		fmt.Sprintf("Block|%d", r.Block),
		fmt.Sprintf("Events|%d", r.Events),
		fmt.Sprintf("Messages|%d", r.Messages),
		fmt.Sprintf("Steps|%d", r.Steps),
		fmt.Sprintf("Results|%d", r.Results),
		fmt.Sprintf("Well Nested|%t", r.WellNested),
	}))

	return buffer.String()
}
