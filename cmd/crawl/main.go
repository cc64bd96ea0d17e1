// Command crawl runs a one-shot bulk backfill over an existing foscam
// tree, printing a CrawlReport on completion. Grounded on cmd/server's
// dependency wiring, trimmed to the subset a backfill needs: no HTTP
// listener, no watcher.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mikesvoboda/foscam-ingest/internal/config"
	"github.com/mikesvoboda/foscam-ingest/internal/crawler"
	"github.com/mikesvoboda/foscam-ingest/internal/data"
	"github.com/mikesvoboda/foscam-ingest/internal/describer"
	"github.com/mikesvoboda/foscam-ingest/internal/describer/videoframe"
	"github.com/mikesvoboda/foscam-ingest/internal/events"
	"github.com/mikesvoboda/foscam-ingest/internal/obslog"
	"github.com/mikesvoboda/foscam-ingest/internal/pathparser"
	"github.com/mikesvoboda/foscam-ingest/internal/processor"
)

func main() {
	configPath := flag.String("config", "config/default.yaml", "path to the YAML configuration file")
	root := flag.String("root", "", "foscam root to crawl; defaults to the configured foscam_root")
	limit := flag.Int("limit", 0, "cap the number of files offered (0 = unlimited)")
	cameras := flag.String("camera", "", "comma-separated list of <location>_<device_name> to restrict to")
	kinds := flag.String("kind", "", "comma-separated subset of snap,record to restrict to")
	onnxModelPath := flag.String("onnx-model", "", "path to the ONNX detection model; empty runs a Stub describer")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	crawlRoot := *root
	if crawlRoot == "" {
		crawlRoot = cfg.FoscamRoot
	}

	logger := obslog.New(cfg.LogLevel)

	store, err := data.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", "err", err)
	}
	defer store.DB.Close()

	if err := store.AlertTypes.SeedCatalog(context.Background()); err != nil {
		logger.Fatal("seed alert type catalog", "err", err)
	}

	var d describer.Describer
	if *onnxModelPath != "" {
		extractor, err := videoframe.New()
		if err != nil {
			logger.Fatal("locate ffmpeg/ffprobe", "err", err)
		}
		d = describer.NewOnnx(*onnxModelPath, extractor)
	} else {
		logger.Warn("no -onnx-model given; running with a stub describer")
		d = &describer.Stub{}
	}
	serialized := describer.NewSerializing(d, cfg.ImageTimeout(), cfg.VideoTimeout())

	recorder := events.NewLogging(logger)
	proc := processor.New(store, serialized, cfg.ThumbnailRoot, recorder)
	pipeline := processor.NewPipeline(proc, cfg.QueueCapacity, cfg.WorkerCount)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := crawler.Crawl(ctx, crawlRoot, pipeline, crawler.Options{
		Limit:   *limit,
		Kinds:   parseKinds(*kinds),
		Cameras: parseList(*cameras),
	})
	pipeline.Close()
	if err != nil {
		logger.Fatal("crawl", "err", err)
	}

	fmt.Printf("seen=%d processed_ok=%d skipped_known=%d skipped_unrecognized=%d failed=%d\n",
		report.Seen, report.ProcessedOK, report.SkippedKnown, report.SkippedUnrecognized, report.Failed)
	for _, f := range report.FirstFailures {
		fmt.Printf("  FAILED %s: %v\n", f.Path, f.Err)
	}
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func parseKinds(s string) []pathparser.Kind {
	if s == "" {
		return nil
	}
	var kinds []pathparser.Kind
	for _, k := range strings.Split(s, ",") {
		switch strings.TrimSpace(k) {
		case "snap":
			kinds = append(kinds, pathparser.KindSnap)
		case "record":
			kinds = append(kinds, pathparser.KindRecord)
		}
	}
	return kinds
}
