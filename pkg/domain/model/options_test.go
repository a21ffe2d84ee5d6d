package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

func TestSimulationOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(o *model.SimulationOptions)
		wantErr bool
	}{
		{name: "defaults", modify: func(o *model.SimulationOptions) {}},
		{name: "min exceeds max", modify: func(o *model.SimulationOptions) { o.MinRuns = 10; o.MaxRuns = 5 }, wantErr: true},
		{name: "zero max runs", modify: func(o *model.SimulationOptions) { o.MinRuns = 0; o.MaxRuns = 0 }, wantErr: true},
		{name: "negative noise", modify: func(o *model.SimulationOptions) { o.NoiseStdDev = -1 }, wantErr: true},
		{name: "zero workers", modify: func(o *model.SimulationOptions) { o.Workers = 0 }, wantErr: true},
		{name: "zero bin width", modify: func(o *model.SimulationOptions) { o.HistogramBinWidth = 0 }, wantErr: true},
		{name: "bad scenario", modify: func(o *model.SimulationOptions) { o.Scenarios = []types.Scenario{"huge"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := model.DefaultSimulationOptions()
			tt.modify(&opts)
			if tt.wantErr {
				gt.Error(t, opts.Validate())
			} else {
				gt.NoError(t, opts.Validate())
			}
		})
	}
}

func TestSimulationOptions_Includes(t *testing.T) {
	opts := model.DefaultSimulationOptions()
	gt.B(t, opts.Includes("flood", types.ScenarioMajor)).True()

	opts.RiskIDs = []types.RiskID{"flood"}
	opts.Scenarios = []types.Scenario{types.ScenarioExtreme}
	gt.B(t, opts.Includes("flood", types.ScenarioExtreme)).True()
	gt.B(t, opts.Includes("flood", types.ScenarioMajor)).False()
	gt.B(t, opts.Includes("drought", types.ScenarioExtreme)).False()

	opts.TerminalRisks = []types.RiskID{"information-operations"}
	gt.B(t, opts.IsTerminal("information-operations")).True()
	gt.B(t, opts.IsTerminal("flood")).False()
}
