// Package artifact is a content-addressed store for everything a run
// produces or consumes: datasets, strategy specs, configs, results and
// verification reports. Artifacts are immutable; lineage between them is
// recorded in an append-only audit log.
package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/portfolio"
	"github.com/rustyeddy/quant/verify"
)

// Kind tags an artifact on the wire and in the index.
type Kind string

const (
	KindDataset        Kind = "dataset"
	KindStrategySpec   Kind = "strategy_spec"
	KindBacktestConfig Kind = "backtest_config"
	KindBacktestResult Kind = "backtest_result"
	KindVerifyReport   Kind = "verify_report"
	KindTrace          Kind = "trace"
)

// Artifact is anything the repository can store.
type Artifact interface {
	Kind() Kind
}

// DatasetMeta carries provenance for a dataset.
type DatasetMeta struct {
	Symbols        []string `json:"symbols"`
	StartTimestamp int64    `json:"start_timestamp"`
	EndTimestamp   int64    `json:"end_timestamp"`
	BarCount       int      `json:"bar_count"`
	Provider       string   `json:"provider"`
}

// Dataset is a named set of bars plus provenance.
type Dataset struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Bars        []market.Bar `json:"bars"`
	Meta        DatasetMeta  `json:"metadata"`
}

func (Dataset) Kind() Kind { return KindDataset }

// StrategySpec describes a strategy independently of any run.
type StrategySpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"strategy_type"`
	Params      map[string]any `json:"parameters"`
	Goal        string         `json:"goal"`
	RegimeTags  []string       `json:"regime_tags"`
}

func (StrategySpec) Kind() Kind { return KindStrategySpec }

// CostModelConfig names a cost model and its parameters.
type CostModelConfig struct {
	Model  string         `json:"model_type"`
	Params map[string]any `json:"parameters"`
}

// BacktestConfig binds a strategy and dataset (by hash) to run parameters.
type BacktestConfig struct {
	InitialCash  float64         `json:"initial_cash"`
	Seed         int64           `json:"seed"`
	StrategyHash string          `json:"strategy_hash"`
	DatasetHash  string          `json:"dataset_hash"`
	CostModel    CostModelConfig `json:"cost_model"`
	Policy       verify.Policy   `json:"policy"`
}

func (BacktestConfig) Kind() Kind { return KindBacktestConfig }

// BacktestResult is the full output of one run.
type BacktestResult struct {
	ConfigHash  string                  `json:"config_hash"`
	Stats       backtest.Stats          `json:"stats"`
	Fills       []broker.Fill           `json:"trades"`
	EquityCurve []portfolio.EquityPoint `json:"equity_curve"`
	ExecutedAt  int64                   `json:"execution_timestamp"`
}

func (BacktestResult) Kind() Kind { return KindBacktestResult }

// VerifyReport links a verification report to the result it checked.
type VerifyReport struct {
	ResultHash string        `json:"result_hash"`
	Report     verify.Report `json:"report"`
}

func (VerifyReport) Kind() Kind { return KindVerifyReport }

// Trace records an operation and the artifacts it consumed and produced.
type Trace struct {
	Operation string         `json:"operation"`
	Inputs    []string       `json:"inputs"`
	Output    string         `json:"output"`
	Timestamp int64          `json:"timestamp"`
	Meta      map[string]any `json:"metadata"`
}

func (Trace) Kind() Kind { return KindTrace }

// envelope is the stored form: a type tag plus the artifact body. The tag
// is what lets Decode pick the right concrete type back out.
type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode serializes an artifact into its tagged JSON form.
func Encode(a Artifact) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", a.Kind(), err)
	}
	return json.Marshal(envelope{Type: a.Kind(), Data: data})
}

// Decode parses a tagged JSON form back into a concrete artifact.
func Decode(raw []byte) (Artifact, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var a Artifact
	switch env.Type {
	case KindDataset:
		a = &Dataset{}
	case KindStrategySpec:
		a = &StrategySpec{}
	case KindBacktestConfig:
		a = &BacktestConfig{}
	case KindBacktestResult:
		a = &BacktestResult{}
	case KindVerifyReport:
		a = &VerifyReport{}
	case KindTrace:
		a = &Trace{}
	default:
		return nil, fmt.Errorf("unknown artifact type %q", env.Type)
	}

	if err := json.Unmarshal(env.Data, a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return deref(a), nil
}

// deref returns the value the decode pointers wrap so callers can type
// switch on value types.
func deref(a Artifact) Artifact {
	switch v := a.(type) {
	case *Dataset:
		return *v
	case *StrategySpec:
		return *v
	case *BacktestConfig:
		return *v
	case *BacktestResult:
		return *v
	case *VerifyReport:
		return *v
	case *Trace:
		return *v
	}
	return a
}
