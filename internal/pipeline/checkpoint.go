package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wiroj/stocketl/internal/storage"
)

// Stage identifies one extraction phase.
type Stage int

// Stages in pipeline order.
const (
	StageMostActive Stage = iota
	StagePrice
	StageNews
	StageBizInfo
)

// Stages lists all stages in execution order.
var Stages = []Stage{StageMostActive, StagePrice, StageNews, StageBizInfo}

func (s Stage) String() string {
	switch s {
	case StageMostActive:
		return "most-active"
	case StagePrice:
		return "price"
	case StageNews:
		return "news"
	case StageBizInfo:
		return "business-info"
	default:
		return "unknown"
	}
}

// stagePatterns maps each per-symbol stage to its key-path fragment and
// artifact suffix.
var stagePatterns = map[Stage]struct {
	dir    string
	suffix string
}{
	StagePrice:   {"/price/", "_stocks_price.json"},
	StageNews:    {"/news/", "_stocks_news.json"},
	StageBizInfo: {"/business_info/", "_stocks_business_info.json"},
}

// Resolver decides which stages are still due for a day by inspecting
// object-store state.
type Resolver struct {
	gw     storage.Gateway
	bucket string
	topN   int
	logger *slog.Logger
}

// NewResolver creates a checkpoint resolver. topN is the expected
// per-symbol artifact count for each downstream stage.
func NewResolver(gw storage.Gateway, bucket string, topN int, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{gw: gw, bucket: bucket, topN: topN, logger: logger}
}

// Resolve returns the set of due stages for the day prefix, in pipeline
// order. An empty set means the day is complete and extraction can be
// skipped.
//
// If the singleton ranked-list artifact is absent the answer is the
// most-active stage alone: downstream stages depend on the symbol list
// it produces. Otherwise each per-symbol family with fewer than topN
// artifacts is due, independently of the others.
//
// A listing failure fails open to the first stage: re-running an
// idempotent extraction is preferable to blocking the day.
func (r *Resolver) Resolve(ctx context.Context, prefix string) []Stage {
	keys, err := r.listArtifacts(ctx, prefix)
	if err != nil {
		r.logger.Warn("listing failed, resuming from first stage",
			"prefix", prefix,
			"error", err,
		)
		return []Stage{StageMostActive}
	}

	mostActive := MostActiveKey(prefix)
	hasMostActive := false
	for _, k := range keys {
		if k == mostActive {
			hasMostActive = true
			break
		}
	}
	if !hasMostActive {
		r.logger.Info("ranked list absent, starting from first stage", "prefix", prefix)
		return []Stage{StageMostActive}
	}

	var due []Stage
	for _, stage := range []Stage{StagePrice, StageNews, StageBizInfo} {
		pat := stagePatterns[stage]
		count := 0
		for _, k := range keys {
			if strings.Contains(k, pat.dir) && strings.HasSuffix(k, pat.suffix) {
				count++
			}
		}
		if count < r.topN {
			r.logger.Info("stage incomplete",
				"stage", stage.String(),
				"found", count,
				"want", r.topN,
			)
			due = append(due, stage)
		}
	}

	if len(due) == 0 {
		r.logger.Info("all artifacts present, skipping extraction", "prefix", prefix)
	}
	return due
}

// listArtifacts lists all artifact keys under the day prefix.
func (r *Resolver) listArtifacts(ctx context.Context, prefix string) ([]string, error) {
	objects, err := r.gw.ListObjects(ctx, r.bucket, prefix+"/", true)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, artifactSuffix) {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}
