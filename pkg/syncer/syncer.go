package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/xerrors"
	"k8s.io/utils/clock"

	"github.com/winefeed/catalog-sync/pkg/types"
)

// Retriever fetches the raw feed document.
type Retriever interface {
	Retrieve(ctx context.Context) ([]byte, error)
}

// Extractor converts a raw feed document into ordered records.
type Extractor interface {
	Extract(data []byte) ([]types.Record, error)
}

// Publisher sends one record to the catalog.
type Publisher interface {
	Publish(ctx context.Context, record types.Record) (types.Payload, error)
}

type Option struct {
	// Progress receives a progress bar for the publish loop. Nil disables it.
	Progress io.Writer
	Clock    clock.PassiveClock
	Logger   *slog.Logger
}

// Syncer drives one run: retrieve, extract, then publish every record in order.
type Syncer struct {
	retriever Retriever
	extractor Extractor
	publisher Publisher

	progress io.Writer
	clock    clock.PassiveClock
	logger   *slog.Logger
	stage    Stage
}

func New(r Retriever, e Extractor, p Publisher, opt Option) *Syncer {
	if opt.Clock == nil {
		opt.Clock = clock.RealClock{}
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default().With(slog.String("component", "syncer"))
	}
	return &Syncer{
		retriever: r,
		extractor: e,
		publisher: p,
		progress:  opt.Progress,
		clock:     opt.Clock,
		logger:    opt.Logger,
		stage:     StageNotStarted,
	}
}

// Stage reports where the last run stopped.
func (s *Syncer) Stage() Stage {
	return s.stage
}

// Run performs a single sync. Retrieval and extraction errors are returned
// unchanged and end the run; publish failures are recorded in the Summary and
// never stop the loop.
func (s *Syncer) Run(ctx context.Context) (Summary, error) {
	summary := Summary{StartedAt: s.clock.Now()}

	s.stage = StageRetrieving
	s.logger.Info("Downloading XML file from FTP")
	data, err := s.retriever.Retrieve(ctx)
	if err != nil {
		s.stage = StageFatal
		return summary, err
	}
	s.logger.Info("File downloaded successfully", slog.Int("bytes", len(data)))

	s.stage = StageExtracting
	s.logger.Info("Parsing XML content")
	records, err := s.extractor.Extract(data)
	if err != nil {
		s.stage = StageFatal
		return summary, err
	}
	summary.Found = len(records)
	s.logger.Info(fmt.Sprintf("Found %d products", len(records)), slog.Int("count", len(records)))

	s.stage = StagePublishing
	if len(records) > 0 {
		s.logger.Info("Uploading products to catalog API")
	}
	bar := s.startProgress(len(records))
	for _, record := range records {
		outcome := s.publish(ctx, record)
		summary.add(outcome)
		if outcome.Succeeded() {
			s.logger.Info("Updated product "+outcome.SKU, slog.String("sku", outcome.SKU))
		} else {
			s.logger.Error(fmt.Sprintf("Failed to update product %s: %s", outcome.SKU, outcome.Error),
				slog.String("sku", outcome.SKU))
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	s.stage = StageDone
	summary.FinishedAt = s.clock.Now()
	s.logger.Info("All products have been processed",
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", summary.Duration()))
	return summary, nil
}

// publish converts every failure of a single update, panics included, into an Outcome.
func (s *Syncer) publish(ctx context.Context, record types.Record) (outcome types.Outcome) {
	outcome.SKU = record.SKU()
	defer func() {
		if r := recover(); r != nil {
			outcome.Payload = nil
			outcome.Err = &types.PublishError{
				SKU: outcome.SKU,
				Err: xerrors.Errorf("publisher panic: %v", r),
			}
		}
		if outcome.Err != nil {
			outcome.Error = outcome.Err.Error()
		}
	}()

	payload, err := s.publisher.Publish(ctx, record)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Payload = payload
	return outcome
}

func (s *Syncer) startProgress(count int) *pb.ProgressBar {
	if s.progress == nil || count == 0 {
		return nil
	}
	return pb.New(count).SetWriter(s.progress).Start()
}
